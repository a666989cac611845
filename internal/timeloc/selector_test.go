package timeloc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/narrtl/internal/frame"
	"github.com/ppiankov/narrtl/internal/model"
	"github.com/ppiankov/narrtl/internal/parse"
)

func parsed(t *testing.T, text string) (*model.Frame, []model.Entity) {
	t.Helper()
	src, err := parse.OpenConllU("../../testdata/narrative.conllu")
	require.NoError(t, err)
	tree, err := src.Parse(context.Background(), text)
	require.NoError(t, err)
	return frame.NewExtractor().Extract(tree), tree.Entities()
}

func prepFrame(preps ...model.Preposition) *model.Frame {
	return &model.Frame{Lemma: "move", Text: "moved", Tense: model.TensePast, Prepositions: preps}
}

func prep(text string, objects ...model.Mention) model.Preposition {
	return model.Preposition{Text: text, Objects: objects}
}

func TestSelect_FromFixture(t *testing.T) {
	f, ents := parsed(t, "In 1990, she moved to Poland.")
	assert.Equal(t, "1990", SelectTime(f, ents, ""))
	assert.Equal(t, "Poland", SelectLocation(f, ents, ""))

	f, ents = parsed(t, "In the following year, they settled in Warsaw.")
	assert.Equal(t, "1991", SelectTime(f, ents, "1990"))
	assert.Equal(t, "Warsaw", SelectLocation(f, ents, "Poland"))

	// nothing to resolve against
	assert.Equal(t, "the following year", SelectTime(f, ents, ""))
}

func TestSelect_CarriesPriorForward(t *testing.T) {
	f, ents := parsed(t, "Mary went to the store.")
	assert.Equal(t, "1990", SelectTime(f, ents, "1990"))
	assert.Equal(t, "Poland", SelectLocation(f, ents, "Poland"))
	assert.Empty(t, SelectTime(f, ents, ""))
}

func TestSelectLocation_UnreachableCandidates(t *testing.T) {
	f := prepFrame()
	ents := []model.Entity{{Text: "Berlin", Label: "GPE"}}

	// no prior value: fall back to every candidate
	assert.Equal(t, "Berlin", SelectLocation(f, ents, ""))
	// a prior value wins over an unreachable mention
	assert.Equal(t, "Poland", SelectLocation(f, ents, "Poland"))
}

func TestSelectLocation_PrefersToAttachment(t *testing.T) {
	f := prepFrame(prep("in", model.Mention{Text: "Berlin", Role: "GPE"}))
	f.ClausalComplement = &model.Frame{
		Lemma: "go", Text: "go", Tense: model.TensePresent,
		Prepositions: []model.Preposition{prep("to", model.Mention{Text: "Warsaw", Role: "GPE"})},
	}
	ents := []model.Entity{{Text: "Berlin", Label: "GPE"}, {Text: "Warsaw", Label: "GPE"}}
	assert.Equal(t, "Warsaw", SelectLocation(f, ents, ""))
}

func TestSelectTime_PrepositionPrefix(t *testing.T) {
	ents := []model.Entity{{Text: "1990", Label: "DATE"}}
	assert.Equal(t, "after 1990", SelectTime(prepFrame(prep("after", model.Mention{Text: "1990", Role: "DATE"})), ents, ""))
	assert.Equal(t, "before 1990", SelectTime(prepFrame(prep("before", model.Mention{Text: "1990", Role: "DATE"})), ents, ""))
	assert.Equal(t, "1990", SelectTime(prepFrame(prep("in", model.Mention{Text: "1990", Role: "DATE"})), ents, ""))
}

func TestSelectTime_PrefersYear(t *testing.T) {
	f := prepFrame(
		prep("in", model.Mention{Text: "following year", Role: "DATE"}),
		prep("after", model.Mention{Text: "1945", Role: "DATE"}),
	)
	ents := []model.Entity{{Text: "the following year", Label: "DATE"}, {Text: "1945", Label: "DATE"}}
	assert.Equal(t, "after 1945", SelectTime(f, ents, "1940"))
}

func TestSelectTime_IgnoresOtherLabels(t *testing.T) {
	f := prepFrame(prep("to", model.Mention{Text: "Poland", Role: "GPE"}))
	assert.Equal(t, "1990", SelectTime(f, []model.Entity{{Text: "Poland", Label: "GPE"}}, "1990"))
}

func TestRelativeOffset(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"two years earlier", -2, true},
		{"3 years later", 3, true},
		{"the previous year", -1, true},
		{"a year after", 1, true},
		{"the next day", 0, false},
		{"years", 0, false},
	}
	for _, tt := range tests {
		got, ok := relativeOffset(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestYearOf(t *testing.T) {
	y, ok := yearOf("after 1990")
	assert.True(t, ok)
	assert.Equal(t, 1990, y)

	y, ok = yearOf("March 3, 1941")
	assert.True(t, ok)
	assert.Equal(t, 1941, y)

	_, ok = yearOf("")
	assert.False(t, ok)
}

func TestSelect_IgnoresFrameStructureWords(t *testing.T) {
	f := &model.Frame{
		Lemma: "go", Text: "went", Tense: model.TensePast,
		Subjects: []model.Mention{{Text: "she", Head: "she", Role: model.RolePerson}},
	}
	// "past" and "Person" appear in the frame's rendering but in no mention
	assert.Equal(t, "1990", SelectTime(f, []model.Entity{{Text: "the past decade", Label: "DATE"}}, "1990"))
	assert.Equal(t, "Poland", SelectLocation(f, []model.Entity{{Text: "Person County", Label: "GPE"}}, "Poland"))
}

func TestSelectLocation_NestedMention(t *testing.T) {
	f := &model.Frame{
		Lemma: "meet", Text: "met", Tense: model.TensePast,
		Subjects: []model.Mention{{
			Text: "members", Head: "member", Role: model.RoleNoun,
			Prepositions: []model.Preposition{prep("from", model.Mention{Text: "Berlin", Role: "GPE"})},
		}},
	}
	assert.Equal(t, "Berlin", SelectLocation(f, []model.Entity{{Text: "Berlin", Label: "GPE"}}, "Poland"))
}
