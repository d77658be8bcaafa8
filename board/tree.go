// Package board holds the long-lived presentation tree that the dashboard
// renders, and the reconciliation engine that folds each full-replacement
// status snapshot into it. Nodes are addressed by stable keys (pipeline
// name, review id, job name), never by position, so updates land on the
// same node across snapshots and the UI can update in place.
package board

import "sort"

// Severity classifies a job row for display.
type Severity int

const (
	SeverityOK Severity = iota
	SeveritySlow
	SeverityVerySlow
	SeveritySuperSlow
	// SeverityDead marks a voting job that already failed; it overrides the
	// time-based classes and renders with a trailing "!".
	SeverityDead
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeveritySlow:
		return "slow"
	case SeverityVerySlow:
		return "veryslow"
	case SeveritySuperSlow:
		return "superslow"
	case SeverityDead:
		return "dead"
	}
	return "unknown"
}

// Tree is the root of the presentation model. Pipeline render order is
// recomputed (ascending by name) on every reconciliation pass; everything
// below a pipeline keeps insertion order.
type Tree struct {
	pipelines map[string]*PipelineNode
	order     []string
}

func NewTree() *Tree {
	return &Tree{pipelines: make(map[string]*PipelineNode)}
}

// PipelineNode is keyed by the pipeline name exactly as received. Reviews
// render in first-seen order and are never re-sorted once inserted.
type PipelineNode struct {
	Name    string
	Label   string
	reviews map[string]*ReviewNode
	order   []string
}

// ReviewNode is keyed by review id, scoped to its pipeline. Job rows keep
// their first-insertion position even when the snapshot reorders jobs; this
// stickiness is deliberate, it keeps the screen from churning.
type ReviewNode struct {
	ID    string
	URL   string
	Ratio float64
	jobs  map[string]*JobRow
	order []string
}

// JobRow is one rendered job line. Rows are never pruned while their review
// lives; a finished job simply stops counting down.
type JobRow struct {
	Name     string
	Text     string
	Severity Severity
}

// Pipeline returns the node for name, or nil.
func (t *Tree) Pipeline(name string) *PipelineNode {
	return t.pipelines[name]
}

// Names returns the current render order (ascending pipeline names).
func (t *Tree) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of visible pipelines.
func (t *Tree) Len() int {
	return len(t.pipelines)
}

// Review returns the node for id, or nil.
func (p *PipelineNode) Review(id string) *ReviewNode {
	return p.reviews[id]
}

// Reviews returns the pipeline's reviews in first-seen order.
func (p *PipelineNode) Reviews() []*ReviewNode {
	out := make([]*ReviewNode, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.reviews[id])
	}
	return out
}

// Row returns the row for a job name, or nil.
func (r *ReviewNode) Row(name string) *JobRow {
	return r.jobs[name]
}

// Rows returns the review's job rows in render order.
func (r *ReviewNode) Rows() []*JobRow {
	out := make([]*JobRow, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.jobs[name])
	}
	return out
}

func newPipelineNode(name, label string) *PipelineNode {
	return &PipelineNode{
		Name:    name,
		Label:   label,
		reviews: make(map[string]*ReviewNode),
	}
}

func newReviewNode(id string) *ReviewNode {
	return &ReviewNode{
		ID:   id,
		jobs: make(map[string]*JobRow),
	}
}

func (p *PipelineNode) removeReviews(ids []string) {
	if len(ids) == 0 {
		return
	}
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
		delete(p.reviews, id)
	}
	kept := p.order[:0]
	for _, id := range p.order {
		if !gone[id] {
			kept = append(kept, id)
		}
	}
	p.order = kept
}

// View is an immutable copy of the tree for rendering. The reconciler
// mutates the live tree on the tick goroutine while the UI draws on its
// own; handing the renderer a copy keeps the two from sharing state.
type View struct {
	Pipelines []PipelineView
}

type PipelineView struct {
	Name    string
	Label   string
	Reviews []ReviewView
}

type ReviewView struct {
	ID    string
	URL   string
	Ratio float64
	Jobs  []JobView
}

type JobView struct {
	Name     string
	Text     string
	Severity Severity
}

// Snapshot copies the tree in render order.
func (t *Tree) Snapshot() View {
	view := View{Pipelines: make([]PipelineView, 0, len(t.order))}
	for _, name := range t.order {
		p := t.pipelines[name]
		pv := PipelineView{
			Name:    p.Name,
			Label:   p.Label,
			Reviews: make([]ReviewView, 0, len(p.order)),
		}
		for _, id := range p.order {
			r := p.reviews[id]
			rv := ReviewView{
				ID:    r.ID,
				URL:   r.URL,
				Ratio: r.Ratio,
				Jobs:  make([]JobView, 0, len(r.order)),
			}
			for _, jobName := range r.order {
				row := r.jobs[jobName]
				rv.Jobs = append(rv.Jobs, JobView{Name: row.Name, Text: row.Text, Severity: row.Severity})
			}
			pv.Reviews = append(pv.Reviews, rv)
		}
		view.Pipelines = append(view.Pipelines, pv)
	}
	return view
}

func sortedStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
