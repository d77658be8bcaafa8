// Package status fetches and holds the scheduler's whole-world status
// snapshot. The upstream endpoint publishes no deltas; every fetch replaces
// the previous snapshot wholesale, and the reconciler downstream is the one
// that turns that into incremental updates.
package status

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is one full-replacement status payload. It is immutable once
// decoded; the store hands the same pointer to every reader.
type Snapshot struct {
	Pipelines []Pipeline `json:"pipelines"`
}

// Pipeline is a named lane of change queues.
type Pipeline struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	ChangeQueues []ChangeQueue `json:"change_queues"`
}

// ChangeQueue groups review items; each head is itself a chain of items
// (queues can contain parallel or merged chains).
type ChangeQueue struct {
	Heads [][]Review `json:"heads"`
}

// Review is a change moving through a pipeline, identified by id.
type Review struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Jobs []Job  `json:"jobs"`
}

// Job is one CI task run against a review, with a remaining-time estimate.
type Job struct {
	Name          string `json:"name"`
	RemainingTime Millis `json:"remaining_time"`
	Result        string `json:"result"`
	Voting        bool   `json:"voting"`
}

// Millis is a millisecond count that the wire format serializes
// inconsistently: sometimes a JSON number, sometimes a numeric string,
// sometimes null. Anything unparseable decodes as 0 rather than failing the
// whole snapshot.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "" || text == "null" {
		*m = 0
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*m = 0
			return nil
		}
		text = strings.TrimSpace(s)
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		*m = Millis(v)
		return nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		*m = Millis(f)
		return nil
	}
	*m = 0
	return nil
}

// Seconds converts to whole seconds, clamping negative estimates to zero.
func (m Millis) Seconds() int64 {
	if m < 0 {
		return 0
	}
	return int64(m) / 1000
}

// Decode parses a status payload. The top-level value must be a JSON object;
// arrays, scalars and null are rejected so a misbehaving endpoint can never
// blank the dashboard with a structurally wrong body.
func Decode(body []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("status payload is not a JSON object")
	}
	var snap Snapshot
	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return nil, fmt.Errorf("decode status payload: %w", err)
	}
	return &snap, nil
}
