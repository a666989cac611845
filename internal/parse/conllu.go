package parse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/narrtl/internal/model"
)

const (
	conlluFields    = 10
	conlluSeparator = "\t"
	textComment     = "# text ="
)

// ConllU serves pre-parsed sentences from a CoNLL-U document. Sentences
// are keyed by their "# text =" comment. MISC may carry NER=B-PERSON and
// SpaceAfter=No.
type ConllU struct {
	sentences map[string][]model.Token
	order     []string
}

// OpenConllU loads a CoNLL-U file
func OpenConllU(path string) (*ConllU, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open conllu: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadConllU(f)
}

// LoadConllU reads CoNLL-U sentences from r
func LoadConllU(r io.Reader) (*ConllU, error) {
	c := &ConllU{sentences: make(map[string][]model.Token)}

	var text string
	var rows []model.Token
	lineNo := 0

	flush := func() error {
		if len(rows) == 0 {
			text = ""
			return nil
		}
		if text == "" {
			parts := make([]string, len(rows))
			for i, r := range rows {
				parts[i] = r.Text
			}
			text = strings.Join(parts, " ")
		}
		for i := range rows {
			if rows[i].Head < 0 {
				rows[i].Head = i
			}
			if rows[i].Head >= len(rows) {
				return fmt.Errorf("line %d: head %d out of range in %q", lineNo, rows[i].Head+1, text)
			}
		}
		key := NormalizeKey(text)
		if _, dup := c.sentences[key]; !dup {
			c.order = append(c.order, text)
		}
		c.sentences[key] = rows
		text = ""
		rows = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, textComment) {
				text = strings.TrimSpace(strings.TrimPrefix(line, textComment))
			}
			continue
		}
		fields := strings.Split(line, conlluSeparator)
		if len(fields) != conlluFields {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", lineNo, conlluFields, len(fields))
		}
		// multiword ranges and empty nodes carry no dependency edge
		if strings.ContainsAny(fields[0], "-.") {
			continue
		}
		tok, err := parseRow(fields, len(rows))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rows = append(rows, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan conllu: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseRow(fields []string, index int) (model.Token, error) {
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return model.Token{}, fmt.Errorf("bad id %q: %w", fields[0], err)
	}
	if id != index+1 {
		return model.Token{}, fmt.Errorf("id %d out of sequence (want %d)", id, index+1)
	}
	head, err := strconv.Atoi(fields[6])
	if err != nil {
		return model.Token{}, fmt.Errorf("bad head %q: %w", fields[6], err)
	}

	tok := model.Token{
		Index:      index,
		Text:       fields[1],
		Lemma:      underscore(fields[2]),
		POS:        underscore(fields[3]),
		Tag:        underscore(fields[4]),
		Morph:      parseFeatures(fields[5]),
		Head:       head - 1,
		Dep:        fields[7],
		SpaceAfter: true,
	}
	if head == 0 || strings.EqualFold(tok.Dep, "root") {
		tok.Dep = model.DepRoot
	}
	if tok.Lemma == "" {
		tok.Lemma = strings.ToLower(tok.Text)
	}

	for _, item := range strings.Split(fields[9], "|") {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		switch k {
		case "SpaceAfter":
			tok.SpaceAfter = v != "No"
		case "NER":
			if v == "O" || v == "" {
				continue
			}
			iob, label, found := strings.Cut(v, "-")
			if !found {
				iob, label = "B", v
			}
			tok.EntityIOB = iob
			tok.Entity = label
		}
	}
	return tok, nil
}

func underscore(s string) string {
	if s == "_" {
		return ""
	}
	return s
}

// Parse returns a fresh tree for a sentence present in the document
func (c *ConllU) Parse(_ context.Context, text string) (*model.Tree, error) {
	rows, ok := c.sentences[NormalizeKey(text)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotParsed, text)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyParse
	}
	return model.NewTree(text, cloneTokens(rows)), nil
}

// Texts returns the sentence texts in document order
func (c *ConllU) Texts() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of sentences loaded
func (c *ConllU) Len() int {
	return len(c.sentences)
}
