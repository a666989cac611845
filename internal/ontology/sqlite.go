package ontology

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/narrtl/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS event_classes (lemma TEXT PRIMARY KEY, class TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS noun_classes (noun TEXT PRIMARY KEY, class TEXT NOT NULL);
CREATE TABLE IF NOT EXISTS idioms (
	phrase TEXT NOT NULL,
	position INTEGER NOT NULL,
	template TEXT NOT NULL,
	PRIMARY KEY (phrase, position)
);
CREATE TABLE IF NOT EXISTS locations (
	name TEXT PRIMARY KEY,
	class TEXT NOT NULL,
	country TEXT,
	admin_level TEXT
);
CREATE TABLE IF NOT EXISTS genders (name TEXT PRIMARY KEY, gender TEXT NOT NULL);
`

// SQLiteLexicon is a Resolver backed by SQLite tables
type SQLiteLexicon struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLiteLexicon opens (and if needed creates) a lexicon database
func OpenSQLiteLexicon(path string, logger *slog.Logger) (*SQLiteLexicon, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite lexicon: %w", err)
	}
	// in-memory databases exist per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create lexicon schema: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteLexicon{db: db, logger: logger}, nil
}

// Close closes the database
func (s *SQLiteLexicon) Close() error {
	return s.db.Close()
}

// Import replaces the database contents with a YAML lexicon
func (s *SQLiteLexicon) Import(ctx context.Context, lex *Lexicon) error {
	file := lex.File()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"event_classes", "noun_classes", "idioms", "locations", "genders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for lemma, class := range file.EventClasses {
		if _, err := tx.ExecContext(ctx, "INSERT INTO event_classes (lemma, class) VALUES (?, ?)", lemma, class); err != nil {
			return fmt.Errorf("insert event class %q: %w", lemma, err)
		}
	}
	for noun, class := range file.NounClasses {
		if _, err := tx.ExecContext(ctx, "INSERT INTO noun_classes (noun, class) VALUES (?, ?)", noun, class); err != nil {
			return fmt.Errorf("insert noun class %q: %w", noun, err)
		}
	}
	for phrase, templates := range file.Idioms {
		for i, t := range templates {
			if _, err := tx.ExecContext(ctx, "INSERT INTO idioms (phrase, position, template) VALUES (?, ?, ?)", phrase, i, t); err != nil {
				return fmt.Errorf("insert idiom %q: %w", phrase, err)
			}
		}
	}
	for name, loc := range file.Locations {
		if _, err := tx.ExecContext(ctx, "INSERT INTO locations (name, class, country, admin_level) VALUES (?, ?, ?, ?)",
			name, loc.Class, loc.Country, loc.AdminLevel); err != nil {
			return fmt.Errorf("insert location %q: %w", name, err)
		}
	}
	for name, gender := range file.Genders {
		if _, err := tx.ExecContext(ctx, "INSERT INTO genders (name, gender) VALUES (?, ?)", name, gender); err != nil {
			return fmt.Errorf("insert gender %q: %w", name, err)
		}
	}
	return tx.Commit()
}

// lookup runs a single-value query; errors other than no rows are logged
func (s *SQLiteLexicon) lookup(ctx context.Context, query string, args ...any) (string, bool) {
	var v string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("lexicon query failed", "query", query, "error", err)
		}
		return "", false
	}
	return v, true
}

// EventClass implements Resolver
func (s *SQLiteLexicon) EventClass(ctx context.Context, lemma string) string {
	if c, ok := s.lookup(ctx, "SELECT class FROM event_classes WHERE lemma = ?", normalize(lemma)); ok {
		return c
	}
	return Unknown
}

// NounClass implements Resolver
func (s *SQLiteLexicon) NounClass(ctx context.Context, text string) string {
	key := normalize(text)
	if c, ok := s.lookup(ctx, "SELECT class FROM noun_classes WHERE noun = ?", key); ok {
		return c
	}
	if head := lastWord(key); head != key {
		if c, ok := s.lookup(ctx, "SELECT class FROM noun_classes WHERE noun = ?", head); ok {
			return c
		}
	}
	return Unknown
}

// Idiom implements Resolver
func (s *SQLiteLexicon) Idiom(ctx context.Context, lemma string, frame *model.Frame) []model.Template {
	for _, key := range idiomKeys(normalize(lemma), frame) {
		templates, err := s.idiom(ctx, key)
		if err != nil {
			s.logger.Warn("lexicon idiom lookup failed", "phrase", key, "error", err)
			return nil
		}
		if len(templates) > 0 {
			return templates
		}
	}
	return nil
}

func (s *SQLiteLexicon) idiom(ctx context.Context, phrase string) ([]model.Template, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT template FROM idioms WHERE phrase = ? ORDER BY position", phrase)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Template
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t, err := model.ParseTemplate(raw)
		if err != nil {
			return nil, fmt.Errorf("idiom %q: %w", phrase, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Location implements Resolver
func (s *SQLiteLexicon) Location(ctx context.Context, text string) Location {
	var loc Location
	var country, admin sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT class, country, admin_level FROM locations WHERE name = ?", normalize(text)).
		Scan(&loc.Class, &country, &admin)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("lexicon location lookup failed", "name", text, "error", err)
		}
		return Location{Class: Unknown}
	}
	loc.Country = country.String
	loc.AdminLevel = admin.String
	return loc
}

// Gender implements Genders
func (s *SQLiteLexicon) Gender(text string) string {
	g, _ := s.lookup(context.Background(), "SELECT gender FROM genders WHERE name = ?", normalize(text))
	return g
}

// EventClasses implements Catalog
func (s *SQLiteLexicon) EventClasses() []string {
	return s.distinct("SELECT DISTINCT class FROM event_classes")
}

// NounClasses implements Catalog
func (s *SQLiteLexicon) NounClasses() []string {
	return s.distinct("SELECT DISTINCT class FROM noun_classes")
}

func (s *SQLiteLexicon) distinct(query string) []string {
	rows, err := s.db.Query(query)
	if err != nil {
		s.logger.Warn("lexicon catalog query failed", "error", err)
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err == nil {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func lastWord(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return s[i+1:]
		}
	}
	return s
}
