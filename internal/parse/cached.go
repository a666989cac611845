package parse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ppiankov/narrtl/internal/cache"
	"github.com/ppiankov/narrtl/internal/model"
)

// Cached memoizes parses; identical text always yields the same tree
type Cached struct {
	source Source
	cache  cache.Cache
	ttl    time.Duration
}

// NewCached wraps source with c
func NewCached(source Source, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{source: source, cache: c, ttl: ttl}
}

type cachedTree struct {
	Text   string        `json:"text"`
	Tokens []model.Token `json:"tokens"`
}

// Parse returns the cached tree or delegates to the wrapped source
func (c *Cached) Parse(ctx context.Context, text string) (*model.Tree, error) {
	key := cache.Key("parse", NormalizeKey(text))
	if data, ok := c.cache.Get(key); ok {
		var ct cachedTree
		if err := json.Unmarshal(data, &ct); err == nil && len(ct.Tokens) > 0 {
			return model.NewTree(text, cloneTokens(ct.Tokens)), nil
		}
		_ = c.cache.Delete(key)
	}

	tree, err := c.source.Parse(ctx, text)
	if err != nil {
		return nil, err
	}

	ct := cachedTree{Text: tree.Text, Tokens: make([]model.Token, len(tree.Tokens))}
	for i, tok := range tree.Tokens {
		ct.Tokens[i] = *tok
	}
	if data, err := json.Marshal(ct); err == nil {
		_ = c.cache.Set(key, data, c.ttl)
	}
	return tree, nil
}
