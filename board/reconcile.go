package board

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/larsks/gerrit-view/status"
)

// Severity thresholds in remaining seconds, inclusive at each boundary.
const (
	okMaxSeconds       = 300
	slowMaxSeconds     = 600
	verySlowMaxSeconds = 1800
)

// Stats summarizes one reconciliation pass. Ops counts structural changes
// (node creations and removals) only; reconciling an unchanged snapshot
// must report Ops == 0.
type Stats struct {
	Pipelines int
	Added     int
	Removed   int
	Refreshed int
	Ops       int
}

// Reconcile folds one snapshot into the tree: pipelines only present in the
// tree are destroyed with all descendants, new ones are created, surviving
// ones have their reviews merged in place. allow is a lower-cased pipeline
// allow list; empty admits every pipeline. Matching against the list is
// case-insensitive, but node keys and pruning stay case-sensitive on the
// exact name as received.
func (t *Tree) Reconcile(snap *status.Snapshot, allow []string) Stats {
	var stats Stats

	target := make(map[string]*status.Pipeline)
	var names []string
	for i := range snap.Pipelines {
		p := &snap.Pipelines[i]
		if p.Name == "" || !allowed(p.Name, allow) {
			continue
		}
		if _, dup := target[p.Name]; dup {
			continue
		}
		target[p.Name] = p
		names = append(names, p.Name)
	}

	for name := range t.pipelines {
		if _, keep := target[name]; !keep {
			delete(t.pipelines, name)
			stats.Removed++
			stats.Ops++
		}
	}
	for _, name := range names {
		if _, exists := t.pipelines[name]; !exists {
			t.pipelines[name] = newPipelineNode(name, pipelineLabel(name, target[name].Description))
			stats.Added++
			stats.Ops++
		}
	}

	t.order = sortedStrings(names)
	for _, name := range t.order {
		node := t.pipelines[name]
		if node == nil {
			// The name-set diff just admitted this pipeline; a miss here means
			// the diff and the update loop have desynchronized.
			panic(fmt.Sprintf("board: pipeline %q missing after diff", name))
		}
		node.reconcileReviews(target[name], &stats)
	}
	stats.Pipelines = len(t.order)
	return stats
}

func allowed(name string, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, want := range allow {
		if lower == want {
			return true
		}
	}
	return false
}

// reconcileReviews merges the flattened review items of one pipeline. Heads
// are visited in snapshot order, items within a head in snapshot order;
// review identity is the id string. Reviews whose id is absent from this
// pass are pruned afterwards, in ascending id order.
func (p *PipelineNode) reconcileReviews(src *status.Pipeline, stats *Stats) {
	seen := make(map[string]bool)
	for qi := range src.ChangeQueues {
		for _, head := range src.ChangeQueues[qi].Heads {
			for ri := range head {
				review := &head[ri]
				if review.ID == "" {
					continue
				}
				node := p.reviews[review.ID]
				if node == nil {
					node = newReviewNode(review.ID)
					p.reviews[review.ID] = node
					p.order = append(p.order, review.ID)
					stats.Ops++
				}
				node.update(review, stats)
				if !seen[review.ID] {
					seen[review.ID] = true
					stats.Refreshed++
				}
			}
		}
	}

	var stale []string
	for id := range p.reviews {
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	p.removeReviews(stale)
	stats.Ops += len(stale)
}

// update merges one review item's jobs into the node. Existing rows are
// updated in place and keep their position; rows first seen this pass are
// appended afterwards in ascending name order.
func (r *ReviewNode) update(src *status.Review, stats *Stats) {
	r.URL = src.URL

	var staged []*JobRow
	counted := make(map[string]bool)
	total := 0
	running := 0
	for i := range src.Jobs {
		job := &src.Jobs[i]
		name := strings.TrimSpace(job.Name)
		if name == "" {
			continue
		}
		seconds := job.RemainingTime.Seconds()
		text := formatRemaining(seconds)
		severity := classify(seconds, job.Result, job.Voting)

		if !counted[name] {
			counted[name] = true
			total++
			if seconds > 0 {
				running++
			}
		}
		if row := r.jobs[name]; row != nil {
			row.Text = text
			row.Severity = severity
			continue
		}
		row := &JobRow{Name: name, Text: text, Severity: severity}
		r.jobs[name] = row
		staged = append(staged, row)
	}

	sort.Slice(staged, func(i, j int) bool { return staged[i].Name < staged[j].Name })
	for _, row := range staged {
		r.order = append(r.order, row.Name)
		stats.Ops++
	}

	r.Ratio = completionRatio(total, running)
}

// completionRatio reads an empty job list as complete, not unknown.
func completionRatio(total, running int) float64 {
	if total == 0 {
		return 1.0
	}
	done := total - running
	if done < 0 {
		done = 0
	}
	ratio := float64(done) / float64(total)
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

func classify(seconds int64, result string, voting bool) Severity {
	if result == "FAILURE" && voting {
		return SeverityDead
	}
	switch {
	case seconds <= okMaxSeconds:
		return SeverityOK
	case seconds <= slowMaxSeconds:
		return SeveritySlow
	case seconds <= verySlowMaxSeconds:
		return SeverityVerySlow
	default:
		return SeveritySuperSlow
	}
}

func formatRemaining(seconds int64) string {
	if seconds == 0 {
		return "0s/0m"
	}
	return fmt.Sprintf("%ds/%.1fm", seconds, float64(seconds)/60)
}

// pipelineLabel builds the "Name, description" header: title-cased name,
// first line of the description with its first character lower-cased.
func pipelineLabel(name, description string) string {
	label := titleWords(name)
	first := description
	if idx := strings.IndexByte(first, '\n'); idx >= 0 {
		first = first[:idx]
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return label
	}
	return label + ", " + lowerFirst(first)
}

func titleWords(s string) string {
	var b strings.Builder
	startOfWord := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			startOfWord = true
			b.WriteRune(r)
			continue
		}
		if startOfWord {
			b.WriteRune(unicode.ToUpper(r))
			startOfWord = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
