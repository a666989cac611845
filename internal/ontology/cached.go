package ontology

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/narrtl/internal/cache"
	"github.com/ppiankov/narrtl/internal/model"
)

// CachedResolver memoises class and location lookups. Idioms depend on
// the whole frame and are passed through.
type CachedResolver struct {
	base  Resolver
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedResolver wraps base with c; a nil cache disables memoisation
func NewCachedResolver(base Resolver, c cache.Cache, ttl time.Duration) *CachedResolver {
	return &CachedResolver{base: base, cache: c, ttl: ttl}
}

// EventClass implements Resolver
func (r *CachedResolver) EventClass(ctx context.Context, lemma string) string {
	return r.memo("event", lemma, func() string { return r.base.EventClass(ctx, lemma) })
}

// NounClass implements Resolver
func (r *CachedResolver) NounClass(ctx context.Context, text string) string {
	return r.memo("noun", text, func() string { return r.base.NounClass(ctx, text) })
}

// Idiom implements Resolver
func (r *CachedResolver) Idiom(ctx context.Context, lemma string, frame *model.Frame) []model.Template {
	return r.base.Idiom(ctx, lemma, frame)
}

// Location implements Resolver
func (r *CachedResolver) Location(ctx context.Context, text string) Location {
	if r.cache == nil {
		return r.base.Location(ctx, text)
	}
	key := cache.Key("location", normalize(text))
	if data, ok := r.cache.Get(key); ok {
		var loc Location
		if err := json.Unmarshal(data, &loc); err == nil {
			return loc
		}
	}
	loc := r.base.Location(ctx, text)
	if data, err := json.Marshal(loc); err == nil {
		_ = r.cache.Set(key, data, r.ttl)
	}
	return loc
}

// Gender forwards to the wrapped resolver when it knows genders
func (r *CachedResolver) Gender(text string) string {
	if g, ok := r.base.(Genders); ok {
		return g.Gender(text)
	}
	return ""
}

// memo caches only known classes so a later LLM or lexicon update can
// still fill an Unknown
func (r *CachedResolver) memo(namespace, term string, resolve func() string) string {
	if r.cache == nil {
		return resolve()
	}
	key := cache.Key(namespace, normalize(term))
	if data, ok := r.cache.Get(key); ok {
		return string(data)
	}
	class := resolve()
	if class != Unknown {
		_ = r.cache.Set(key, []byte(class), r.ttl)
	}
	return class
}
