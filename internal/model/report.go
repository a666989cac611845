package model

import "time"

// Report is the result of converting one narrative
type Report struct {
	Subject     string           `json:"subject"`      // Narrative name (file name, URL slug)
	Source      string           `json:"source"`       // Path or URL that was read
	ProcessedAt time.Time        `json:"processed_at"` // When the conversion finished
	Sentences   []SentenceResult `json:"sentences"`
	Stats       Stats            `json:"stats"`
}

// SentenceResult holds the output for one sentence
type SentenceResult struct {
	Index    int            `json:"index"`
	Text     string         `json:"text"`
	Time     string         `json:"time,omitempty"`
	Location string         `json:"location,omitempty"`
	Clauses  []ClauseResult `json:"clauses,omitempty"`
	Skipped  bool           `json:"skipped,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ClauseResult holds the frame and compiled fragments for one clause
type ClauseResult struct {
	Clause    Clause   `json:"clause"`
	Frame     *Frame   `json:"frame,omitempty"`
	Fragments []string `json:"fragments"`
}

// Stats counts degradations from the error taxonomy
type Stats struct {
	Sentences      int `json:"sentences"`
	Skipped        int `json:"skipped"`         // decomposition or parse failures
	Clauses        int `json:"clauses"`
	EmptyFrames    int `json:"empty_frames"`    // clauses without a root verb
	Fragments      int `json:"fragments"`
	Dropped        int `json:"dropped"`         // unresolved placeholders
	UnknownClasses int `json:"unknown_classes"` // resolver fallbacks
	Invalid        int `json:"invalid"`         // fragments rejected by Turtle validation
}

// Fragments returns all fragments in sentence and clause order
func (r *Report) Fragments() []string {
	var out []string
	for _, s := range r.Sentences {
		for _, c := range s.Clauses {
			out = append(out, c.Fragments...)
		}
	}
	return out
}

// Add accumulates o into s
func (s *Stats) Add(o Stats) {
	s.Sentences += o.Sentences
	s.Skipped += o.Skipped
	s.Clauses += o.Clauses
	s.EmptyFrames += o.EmptyFrames
	s.Fragments += o.Fragments
	s.Dropped += o.Dropped
	s.UnknownClasses += o.UnknownClasses
	s.Invalid += o.Invalid
}
