package model

// ClauseMarker separates clause text from a preserved causal connector
const ClauseMarker = "$&"

// Clause is an independently processable fragment of a sentence
type Clause struct {
	Text        string `json:"text"`                  // Normalized clause text ending in a period
	Connector   string `json:"connector,omitempty"`   // Causal/effect connector preserved for this clause
	Alternative bool   `json:"alternative,omitempty"` // Split off an "or"/"nor" coordination
}

// String renders the clause with its synthetic connector marker
func (c Clause) String() string {
	if c.Connector == "" {
		return c.Text
	}
	return c.Text + ClauseMarker + c.Connector
}

// ClauseTexts returns the clause texts in order
func ClauseTexts(clauses []Clause) []string {
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = c.Text
	}
	return out
}
