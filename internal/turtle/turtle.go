// Package turtle assembles compiled fragments into a Turtle document and
// checks fragments with an RDF parser before they are emitted.
package turtle

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/knakk/rdf"

	"github.com/ppiankov/narrtl/internal/ontology"
)

// ErrInvalid is wrapped by Validate when a fragment does not parse
var ErrInvalid = errors.New("invalid turtle")

// True is the boolean literal used for flags such as :negated
const True = `"true"^^xsd:boolean`

// Literal renders text as a Turtle string literal with escaping
func Literal(text string) string {
	lit, err := rdf.NewLiteral(text)
	if err != nil {
		return strconv.Quote(text)
	}
	return lit.Serialize(rdf.Turtle)
}

// Decimal renders a number literal
func Decimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Header renders @prefix lines for the given prefixes, empty prefix first
func Header(prefixes map[string]string) string {
	names := make([]string, 0, len(prefixes))
	for name := range prefixes {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", name, prefixes[name])
	}
	return sb.String()
}

var defaultHeader = Header(ontology.Prefixes)

// Validate parses one fragment under the default prefixes
func Validate(fragment string) error {
	dec := rdf.NewTripleDecoder(strings.NewReader(defaultHeader+fragment+"\n"), rdf.Turtle)
	n := 0
	for {
		_, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalid, fragment, err)
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("%w: %q: no triples", ErrInvalid, fragment)
	}
	return nil
}

// Document collects fragments in order, dropping exact duplicates
type Document struct {
	prefixes  map[string]string
	fragments []string
	seen      map[string]bool
}

// NewDocument creates a document using the ontology prefixes
func NewDocument() *Document {
	return &Document{
		prefixes: ontology.Prefixes,
		seen:     make(map[string]bool),
	}
}

// Add appends fragments not already present
func (d *Document) Add(fragments ...string) {
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" || d.seen[f] {
			continue
		}
		d.seen[f] = true
		d.fragments = append(d.fragments, f)
	}
}

// Len returns the number of distinct fragments
func (d *Document) Len() int {
	return len(d.fragments)
}

// Fragments returns the collected fragments
func (d *Document) Fragments() []string {
	return append([]string(nil), d.fragments...)
}

// WriteTo writes the prefix header followed by one fragment per line
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := io.WriteString(w, Header(d.prefixes)+"\n")
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, f := range d.fragments {
		n, err = io.WriteString(w, f+"\n")
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (d *Document) String() string {
	var sb strings.Builder
	_, _ = d.WriteTo(&sb)
	return sb.String()
}
