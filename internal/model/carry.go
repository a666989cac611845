package model

// Candidate is a noun seen earlier, available for pronoun and passive
// subject resolution
type Candidate struct {
	Text   string `json:"text"`
	URI    string `json:"uri"`
	Entity string `json:"entity,omitempty"`
	Gender string `json:"gender,omitempty"`
	Plural bool   `json:"plural,omitempty"`
}

// Carry is the state threaded from one sentence to the next
type Carry struct {
	PriorTime     string      `json:"prior_time,omitempty"`
	PriorLocation string      `json:"prior_location,omitempty"`
	LastNouns     []Candidate `json:"last_nouns,omitempty"`
}

// MaxLastNouns bounds the carried noun list
const MaxLastNouns = 12

// WithNouns returns a copy with the given nouns prepended (most recent first)
func (c Carry) WithNouns(nouns []Candidate) Carry {
	merged := make([]Candidate, 0, len(nouns)+len(c.LastNouns))
	seen := make(map[string]bool)
	for i := len(nouns) - 1; i >= 0; i-- {
		if !seen[nouns[i].URI] {
			seen[nouns[i].URI] = true
			merged = append(merged, nouns[i])
		}
	}
	for _, n := range c.LastNouns {
		if !seen[n.URI] {
			seen[n.URI] = true
			merged = append(merged, n)
		}
	}
	if len(merged) > MaxLastNouns {
		merged = merged[:MaxLastNouns]
	}
	c.LastNouns = merged
	return c
}
