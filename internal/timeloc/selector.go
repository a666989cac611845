// Package timeloc picks the single time and location that apply to a
// sentence, carrying the previous sentence's values forward.
package timeloc

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/araddon/dateparse"

	"github.com/ppiankov/narrtl/internal/model"
)

// minTokenLen skips determiners when matching candidates against the frame
const minTokenLen = 3

var (
	timeLabels     = map[string]bool{"DATE": true, "TIME": true}
	locationLabels = map[string]bool{"GPE": true, "LOC": true, "FAC": true}

	yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

	forwardWords  = map[string]bool{"later": true, "next": true, "following": true, "after": true, "subsequent": true}
	backwardWords = map[string]bool{"earlier": true, "previous": true, "prior": true, "before": true, "preceding": true}

	numberWords = map[string]int{
		"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	}

	afterPreps  = map[string]bool{"after": true, "since": true}
	beforePreps = map[string]bool{"before": true, "until": true, "till": true}
)

// SelectTime returns the time of a sentence. Candidates are the DATE/TIME
// entities whose words appear in a frame mention; with none and no
// prior time, every candidate is considered. The result is prefixed
// "after " or "before " from the governing preposition, and relative
// year expressions are resolved against prior.
func SelectTime(f *model.Frame, entities []model.Entity, prior string) string {
	candidates := retained(f, entities, timeLabels, prior)
	if len(candidates) == 0 {
		return prior
	}

	chosen := candidates[0]
	for _, c := range candidates {
		if yearPattern.MatchString(c.Text) {
			chosen = c
			break
		}
	}

	text := chosen.Text
	if !yearPattern.MatchString(text) {
		if resolved, ok := resolveRelative(text, prior); ok {
			text = resolved
		}
	}

	switch prep := governingPrep(f, chosen.Text); {
	case afterPreps[prep]:
		return "after " + text
	case beforePreps[prep]:
		return "before " + text
	}
	return text
}

// SelectLocation returns the location of a sentence. Among candidates
// reachable from the frame, one attached through "to" on the main verb or
// a clausal complement wins; otherwise the first in discovery order.
func SelectLocation(f *model.Frame, entities []model.Entity, prior string) string {
	candidates := retained(f, entities, locationLabels, prior)
	if len(candidates) == 0 {
		return prior
	}
	for _, c := range candidates {
		if reachableViaTo(f, c.Text) {
			return c.Text
		}
	}
	return candidates[0].Text
}

// retained filters entities by label and keeps those with a word of at
// least minTokenLen letters occurring in a mention of the frame
func retained(f *model.Frame, entities []model.Entity, labels map[string]bool, prior string) []model.Entity {
	var all, kept []model.Entity
	words := wordSet(strings.Join(f.MentionTexts(), " "))
	for _, e := range entities {
		if !labels[e.Label] {
			continue
		}
		all = append(all, e)
		for _, w := range splitWords(e.Text) {
			if len([]rune(w)) >= minTokenLen && words[w] {
				kept = append(kept, e)
				break
			}
		}
	}
	if len(kept) == 0 && prior == "" {
		return all
	}
	return kept
}

// resolveRelative turns "two years later" into prior's year plus two
func resolveRelative(text, prior string) (string, bool) {
	year, ok := yearOf(prior)
	if !ok {
		return "", false
	}
	offset, ok := relativeOffset(text)
	if !ok {
		return "", false
	}
	return strconv.Itoa(year + offset), true
}

// relativeOffset parses a signed year offset; expressions without a year
// unit are not relative in this sense
func relativeOffset(text string) (int, bool) {
	words := splitWords(text)
	sign, unit := 0, false
	n := 1
	counted := false
	for _, w := range words {
		switch {
		case forwardWords[w]:
			sign = 1
		case backwardWords[w]:
			sign = -1
		case w == "year" || w == "years":
			unit = true
		case !counted:
			if v, ok := numberWords[w]; ok {
				n, counted = v, true
			} else if v, err := strconv.Atoi(w); err == nil && v < 1000 {
				n, counted = v, true
			}
		}
	}
	if sign == 0 || !unit {
		return 0, false
	}
	return sign * n, true
}

// yearOf extracts a year from a time string such as "1990", "after 1990"
// or "3/4/41"
func yearOf(text string) (int, bool) {
	text = strings.TrimPrefix(strings.TrimPrefix(text, "after "), "before ")
	if m := yearPattern.FindStringSubmatch(text); m != nil {
		y, err := strconv.Atoi(m[1])
		return y, err == nil
	}
	if t, err := dateparse.ParseAny(text); err == nil && t.Year() > 0 {
		return t.Year(), true
	}
	return 0, false
}

// governingPrep returns the preposition whose object shares a word with
// the entity text, searching the frame and its complements
func governingPrep(f *model.Frame, text string) string {
	if f.IsEmpty() {
		return ""
	}
	target := wordSet(text)
	for _, v := range append(f.Verbs(), complements(f)...) {
		for _, p := range v.Prepositions {
			for _, o := range p.Objects {
				for _, w := range splitWords(o.Text) {
					if len(w) >= minTokenLen && target[w] {
						return p.Text
					}
				}
			}
		}
	}
	return ""
}

func reachableViaTo(f *model.Frame, text string) bool {
	if f.IsEmpty() {
		return false
	}
	target := strings.ToLower(text)
	for _, v := range append([]*model.Frame{f}, complements(f)...) {
		for _, p := range v.Prepositions {
			if p.Text != "to" {
				continue
			}
			for _, o := range p.Objects {
				if strings.ToLower(o.Text) == target {
					return true
				}
			}
		}
	}
	return false
}

// complements returns the chain of clausal complements below f
func complements(f *model.Frame) []*model.Frame {
	var out []*model.Frame
	for c := f.ClausalComplement; c != nil; c = c.ClausalComplement {
		out = append(out, c)
	}
	return out
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range splitWords(s) {
		set[w] = true
	}
	return set
}
