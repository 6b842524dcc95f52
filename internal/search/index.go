// Package search provides a deterministic, concurrency-safe in-memory index
// over the free-text fields of a bot's records: example texts, synonym
// values, lookup values and regex patterns.
//
//   - No logging in the library (callers decide how/what to log)
//   - Functional options (Option pattern)
//   - Unicode case folding with optional stop-word removal
//   - Immutable after construction, so safe for concurrent use
//   - Deterministic scoring and ordering (stable order for ties)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Doc is one searchable text with the record it came from.
type Doc struct {
	ID   string
	Kind string
	Text string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID    string  `json:"id"`
	Kind  string  `json:"kind"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Index is implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// DefaultK is used when TopK is called with k <= 0.
const DefaultK = 10

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minRunes  int
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{}
}

// WithMinRunes skips documents shorter than n runes.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	Doc
	tokens map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// New builds an Index over docs. Documents with no tokens are skipped.
func New(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		d.Text = strings.TrimSpace(normalizeWhitespace(d.Text))
		if d.Text == "" {
			continue
		}
		if cfg.minRunes > 0 && utf8.RuneCountInString(d.Text) < cfg.minRunes {
			continue
		}
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		out = append(out, doc{Doc: d, tokens: toks})
		if cfg.maxDocs > 0 && len(out) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: out}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching documents by Jaccard similarity.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		d        *doc
		score    float64
		lenRunes int
	}
	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for n := range i.docs {
		d := &i.docs[n]
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		buf = append(buf, scored{d: d, score: float64(over) / union, lenRunes: utf8.RuneCountInString(d.Text)})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].d.Text < buf[b].d.Text
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		d := buf[n].d
		out[n] = Result{ID: d.ID, Kind: d.Kind, Text: d.Text, Score: buf[n].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

// fold applies Unicode case folding, so "STRASSE" and "straße" compare equal.
func fold(s string) string {
	return cases.Fold().String(s)
}

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
