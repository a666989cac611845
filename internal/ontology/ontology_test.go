package ontology

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/narrtl/internal/cache"
	"github.com/ppiankov/narrtl/internal/llm"
	"github.com/ppiankov/narrtl/internal/model"
)

const lexiconFixture = "../../testdata/lexicon.yaml"

func loadLexicon(t *testing.T) *Lexicon {
	t.Helper()
	lex, err := LoadLexicon(lexiconFixture)
	require.NoError(t, err)
	return lex
}

func TestLexicon_Classes(t *testing.T) {
	lex := loadLexicon(t)
	ctx := context.Background()

	assert.Equal(t, ":MovementTravelAndTransportation", lex.EventClass(ctx, "go"))
	assert.Equal(t, ":MovementTravelAndTransportation", lex.EventClass(ctx, "Go"))
	assert.Equal(t, Unknown, lex.EventClass(ctx, "teleport"))

	assert.Equal(t, ":Store", lex.NounClass(ctx, "store"))
	assert.Equal(t, ":Person", lex.NounClass(ctx, "young farmer"), "falls back to the last word")
	assert.Equal(t, Unknown, lex.NounClass(ctx, "spaceship"))
}

func TestLexicon_IdiomPrefersSpecificKeys(t *testing.T) {
	lex := loadLexicon(t)
	ctx := context.Background()

	farmer := &model.Frame{Lemma: "be", Objects: []model.Mention{{Text: "farmer", Head: "farmer", Role: model.RoleNoun}}}
	got := lex.Idiom(ctx, "be", farmer)
	require.Len(t, got, 1)
	assert.Equal(t, model.TemplateCondition, got[0].Kind)
	assert.Equal(t, AttrLineOfBusiness, got[0].Attribute)

	hispanic := &model.Frame{Lemma: "be", Complements: []string{"Hispanic"}}
	got = lex.Idiom(ctx, "be", hispanic)
	require.Len(t, got, 1)
	assert.Equal(t, ":Hispanic", got[0].Objects[0].Value)

	assert.Nil(t, lex.Idiom(ctx, "be", &model.Frame{Lemma: "be"}))

	force := lex.Idiom(ctx, "force", nil)
	require.Len(t, force, 1)
	require.Len(t, force[0].Objects, 1)
	assert.Equal(t, model.TermClausal, force[0].Objects[0].Kind)
	assert.Equal(t, ":Coercion", TypeClass(force))
}

func TestLexicon_IdiomReturnsCopy(t *testing.T) {
	lex := loadLexicon(t)
	ctx := context.Background()

	got := lex.Idiom(ctx, "deliver", nil)
	require.Len(t, got, 3)
	got[0].Predicate = ":mutated"
	assert.Equal(t, PredType, lex.Idiom(ctx, "deliver", nil)[0].Predicate)
}

func TestLexicon_LocationAndGender(t *testing.T) {
	lex := loadLexicon(t)
	ctx := context.Background()

	loc := lex.Location(ctx, "Poland")
	assert.True(t, loc.Known())
	assert.Equal(t, Location{Class: ":Country", Country: "Poland", AdminLevel: "798544"}, loc)
	assert.False(t, lex.Location(ctx, "Atlantis").Known())

	assert.Equal(t, "female", lex.Gender("Mary"))
	assert.Equal(t, "", lex.Gender("Sam"))
}

func TestLexicon_Catalog(t *testing.T) {
	lex := loadLexicon(t)
	events := lex.EventClasses()
	assert.Contains(t, events, ":Attempt")
	assert.IsIncreasing(t, events)
	assert.Contains(t, lex.NounClasses(), ":Residence")
}

func TestReadLexicon_RejectsBadTemplate(t *testing.T) {
	_, err := ReadLexicon(strings.NewReader("idioms:\n  run:\n    - \"event a xcomp()\"\n"))
	assert.Error(t, err)
}

func TestReadLexicon_Empty(t *testing.T) {
	lex, err := ReadLexicon(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Unknown, lex.EventClass(context.Background(), "go"))
}

func TestSQLiteLexicon_ImportMatchesYAML(t *testing.T) {
	lex := loadLexicon(t)
	db, err := OpenSQLiteLexicon(":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	require.NoError(t, db.Import(ctx, lex))

	assert.Equal(t, lex.EventClass(ctx, "settle"), db.EventClass(ctx, "settle"))
	assert.Equal(t, Unknown, db.EventClass(ctx, "teleport"))
	assert.Equal(t, ":Person", db.NounClass(ctx, "young farmer"))
	assert.Equal(t, lex.Location(ctx, "warsaw"), db.Location(ctx, "Warsaw"))
	assert.False(t, db.Location(ctx, "Atlantis").Known())
	assert.Equal(t, "male", db.Gender("John"))
	assert.Equal(t, lex.EventClasses(), db.EventClasses())
	assert.Equal(t, lex.NounClasses(), db.NounClasses())

	farmer := &model.Frame{Lemma: "be", Objects: []model.Mention{{Text: "farmer", Head: "farmer"}}}
	assert.Equal(t, lex.Idiom(ctx, "be", farmer), db.Idiom(ctx, "be", farmer))

	deliver := db.Idiom(ctx, "deliver", nil)
	require.Len(t, deliver, 3)
	assert.Equal(t, "event a :TransferOfPossession", deliver[0].String())
}

func TestSQLiteLexicon_ReimportReplaces(t *testing.T) {
	db, err := OpenSQLiteLexicon(":memory:", nil)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	first, err := NewLexicon(LexiconFile{EventClasses: map[string]string{"go": ":A"}})
	require.NoError(t, err)
	second, err := NewLexicon(LexiconFile{EventClasses: map[string]string{"run": ":B"}})
	require.NoError(t, err)

	require.NoError(t, db.Import(ctx, first))
	require.NoError(t, db.Import(ctx, second))
	assert.Equal(t, Unknown, db.EventClass(ctx, "go"))
	assert.Equal(t, ":B", db.EventClass(ctx, "run"))
}

type fakeClassifier struct {
	answer string
	err    error
	calls  []string
}

func (f *fakeClassifier) Classify(_ context.Context, kind llm.TermKind, term string, candidates []string) (string, error) {
	f.calls = append(f.calls, string(kind)+":"+term)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestLLMResolver_FallsBackOnlyOnUnknown(t *testing.T) {
	lex := loadLexicon(t)
	fake := &fakeClassifier{answer: ":MovementTravelAndTransportation"}
	r := NewLLMResolver(lex, fake, nil)
	ctx := context.Background()

	assert.Equal(t, ":Attempt", r.EventClass(ctx, "attempt"))
	assert.Empty(t, fake.calls)

	assert.Equal(t, ":MovementTravelAndTransportation", r.EventClass(ctx, "wander"))
	assert.Equal(t, []string{"event:wander"}, fake.calls)

	assert.Equal(t, "female", r.Gender("mary"))
	assert.NotNil(t, r.Idiom(ctx, "force", nil))
}

func TestLLMResolver_ErrorDegradesToUnknown(t *testing.T) {
	fake := &fakeClassifier{err: errors.New("quota")}
	r := NewLLMResolver(loadLexicon(t), fake, nil)
	assert.Equal(t, Unknown, r.NounClass(context.Background(), "spaceship"))
	assert.Equal(t, []string{"noun:spaceship"}, fake.calls)
}

func TestLLMResolver_NilClassifier(t *testing.T) {
	r := NewLLMResolver(loadLexicon(t), nil, nil)
	assert.Equal(t, Unknown, r.EventClass(context.Background(), "wander"))
}

type countingResolver struct {
	Resolver
	events    int
	locations int
}

func (c *countingResolver) EventClass(ctx context.Context, lemma string) string {
	c.events++
	return c.Resolver.EventClass(ctx, lemma)
}

func (c *countingResolver) Location(ctx context.Context, text string) Location {
	c.locations++
	return c.Resolver.Location(ctx, text)
}

func TestCachedResolver_MemoisesKnownClasses(t *testing.T) {
	base := &countingResolver{Resolver: loadLexicon(t)}
	r := NewCachedResolver(base, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	assert.Equal(t, ":Loss", r.EventClass(ctx, "lose"))
	assert.Equal(t, ":Loss", r.EventClass(ctx, "lose"))
	assert.Equal(t, 1, base.events)

	assert.Equal(t, Unknown, r.EventClass(ctx, "teleport"))
	assert.Equal(t, Unknown, r.EventClass(ctx, "teleport"))
	assert.Equal(t, 3, base.events, "unknown classes are not cached")

	assert.Equal(t, "Poland", r.Location(ctx, "Poland").Country)
	assert.Equal(t, "Poland", r.Location(ctx, "poland").Country)
	assert.Equal(t, 1, base.locations)

	assert.Equal(t, "male", NewCachedResolver(loadLexicon(t), nil, 0).Gender("john"))
}

func TestCachedResolver_NilCache(t *testing.T) {
	base := &countingResolver{Resolver: loadLexicon(t)}
	r := NewCachedResolver(base, nil, 0)
	r.EventClass(context.Background(), "go")
	r.EventClass(context.Background(), "go")
	assert.Equal(t, 2, base.events)
}

func TestAttributePredicate(t *testing.T) {
	assert.Equal(t, ":has_ethnicity", AttributePredicate(AttrEthnicity))
	assert.Equal(t, ":has_political_ideology", AttributePredicate(AttrPoliticalIdeology))
	assert.Equal(t, ":has_line_of_business", AttributePredicate(AttrLineOfBusiness))
	assert.Equal(t, "", AttributePredicate("Mood"))
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, ":Mary", LocalName("Mary"))
	assert.Equal(t, ":NewYork", LocalName("new york"))
	assert.Equal(t, ":StPetersburg", LocalName("St. Petersburg"))
	assert.Equal(t, ":_1990", LocalName("1990"))
	assert.Equal(t, "", LocalName("..."))
}

func TestEntityClass(t *testing.T) {
	assert.Equal(t, ClassPerson, EntityClass("PERSON"))
	assert.Equal(t, ClassCountry, EntityClass("GPE"))
	assert.Equal(t, "", EntityClass("CARDINAL"))
}
