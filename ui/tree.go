package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/larsks/gerrit-view/board"
)

// nodeArena maps the board's stable keys onto long-lived tview tree nodes.
// Applying a new view reuses existing nodes wherever the key survives, so
// expansion state and the user's place in the tree are preserved across
// refreshes; only nodes whose key disappeared are dropped.
type nodeArena struct {
	root      *tview.TreeNode
	pipelines map[string]*pipelineWidgets
}

type pipelineWidgets struct {
	node    *tview.TreeNode
	reviews map[string]*reviewWidgets
}

type reviewWidgets struct {
	node *tview.TreeNode
	jobs map[string]*tview.TreeNode
}

func newNodeArena(root *tview.TreeNode) *nodeArena {
	return &nodeArena{
		root:      root,
		pipelines: make(map[string]*pipelineWidgets),
	}
}

// Apply brings the widget tree in sync with one immutable board view.
// Must run on the UI goroutine.
func (a *nodeArena) Apply(view board.View) {
	children := make([]*tview.TreeNode, 0, len(view.Pipelines))
	seen := make(map[string]bool, len(view.Pipelines))
	for _, pipeline := range view.Pipelines {
		pw := a.pipelines[pipeline.Name]
		if pw == nil {
			pw = &pipelineWidgets{
				node:    tview.NewTreeNode("").SetColor(tcell.ColorYellow).SetExpanded(true),
				reviews: make(map[string]*reviewWidgets),
			}
			a.pipelines[pipeline.Name] = pw
		}
		pw.node.SetText(pipeline.Label)
		pw.apply(pipeline)
		seen[pipeline.Name] = true
		children = append(children, pw.node)
	}
	for name := range a.pipelines {
		if !seen[name] {
			delete(a.pipelines, name)
		}
	}
	a.root.SetChildren(children)
}

func (w *pipelineWidgets) apply(pipeline board.PipelineView) {
	children := make([]*tview.TreeNode, 0, len(pipeline.Reviews))
	seen := make(map[string]bool, len(pipeline.Reviews))
	for _, review := range pipeline.Reviews {
		rw := w.reviews[review.ID]
		if rw == nil {
			rw = &reviewWidgets{
				node: tview.NewTreeNode("").SetExpanded(true),
				jobs: make(map[string]*tview.TreeNode),
			}
			w.reviews[review.ID] = rw
		}
		rw.node.SetText(reviewText(review))
		rw.apply(review)
		seen[review.ID] = true
		children = append(children, rw.node)
	}
	for id := range w.reviews {
		if !seen[id] {
			delete(w.reviews, id)
		}
	}
	w.node.SetChildren(children)
}

func (w *reviewWidgets) apply(review board.ReviewView) {
	children := make([]*tview.TreeNode, 0, len(review.Jobs))
	seen := make(map[string]bool, len(review.Jobs))
	for _, job := range review.Jobs {
		node := w.jobs[job.Name]
		if node == nil {
			node = tview.NewTreeNode("")
			w.jobs[job.Name] = node
		}
		node.SetText(jobText(job)).SetColor(severityColor(job.Severity))
		seen[job.Name] = true
		children = append(children, node)
	}
	for name := range w.jobs {
		if !seen[name] {
			delete(w.jobs, name)
		}
	}
	w.node.SetChildren(children)
}

func reviewText(review board.ReviewView) string {
	percent := int(review.Ratio * 100)
	if review.URL != "" {
		return fmt.Sprintf("%s  %s  %d%%", review.ID, review.URL, percent)
	}
	return fmt.Sprintf("%s  %d%%", review.ID, percent)
}

func jobText(job board.JobView) string {
	text := job.Name + ": " + job.Text
	if job.Severity == board.SeverityDead {
		text += "!"
	}
	return text
}

func severityColor(severity board.Severity) tcell.Color {
	switch severity {
	case board.SeverityOK:
		return tcell.ColorGreen
	case board.SeveritySlow:
		return tcell.ColorYellow
	case board.SeverityVerySlow:
		return tcell.ColorOrange
	default:
		return tcell.ColorRed
	}
}
