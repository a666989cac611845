package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/narrtl/internal/model"
)

// Waiter blocks until a request to rawURL may proceed
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

const maxAttempts = 3

// sleepFunc is swapped out in tests
var sleepFunc = time.Sleep

// HTTPSource calls a spaCy-style parse service:
//
//	POST {"text": "..."} -> {"tokens": [{"id":0,"text":"Mary","lemma":"Mary","pos":"PROPN",...}]}
type HTTPSource struct {
	url        string
	httpClient *http.Client
	limiter    Waiter
	userAgent  string
}

// NewHTTPSource creates a source for the given endpoint; limiter may be nil
func NewHTTPSource(url string, timeout time.Duration, limiter Waiter, userAgent string) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		userAgent:  userAgent,
	}
}

type parseRequest struct {
	Text string `json:"text"`
}

type wireToken struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	Lemma      string `json:"lemma"`
	POS        string `json:"pos"`
	Tag        string `json:"tag"`
	Dep        string `json:"dep"`
	Head       int    `json:"head"`
	EntType    string `json:"ent_type"`
	EntIOB     string `json:"ent_iob"`
	Morph      string `json:"morph"`
	Whitespace string `json:"whitespace"`
}

type parseResponse struct {
	Tokens []wireToken `json:"tokens"`
}

// Parse sends text to the service, retrying transient failures
func (s *HTTPSource) Parse(ctx context.Context, text string) (*model.Tree, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			sleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, s.url); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		resp, retry, err := s.do(ctx, body)
		if err == nil {
			return decodeTree(text, resp)
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (s *HTTPSource) do(ctx context.Context, body []byte) (*parseResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("parse request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("parse service status: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("parse service status: %d", resp.StatusCode)
	}

	var out parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("decode parse: %w", err)
	}
	return &out, false, nil
}

func decodeTree(text string, resp *parseResponse) (*model.Tree, error) {
	if len(resp.Tokens) == 0 {
		return nil, ErrEmptyParse
	}
	tokens := make([]*model.Token, len(resp.Tokens))
	for i, w := range resp.Tokens {
		if w.ID != i {
			return nil, fmt.Errorf("token %d has id %d", i, w.ID)
		}
		tok := &model.Token{
			Index:      i,
			Text:       w.Text,
			Lemma:      w.Lemma,
			POS:        w.POS,
			Tag:        w.Tag,
			Dep:        w.Dep,
			Head:       w.Head,
			Morph:      parseFeatures(w.Morph),
			SpaceAfter: w.Whitespace != "",
		}
		if w.EntType != "" && w.EntIOB != "O" {
			tok.Entity = w.EntType
			tok.EntityIOB = w.EntIOB
		}
		if strings.EqualFold(tok.Dep, "root") {
			tok.Dep = model.DepRoot
		}
		tokens[i] = tok
	}
	return model.NewTree(text, tokens), nil
}
