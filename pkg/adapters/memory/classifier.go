package memory

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/aretw0/dockwise/pkg/domain"
)

// Classifier is a keyword classifier used when no NLU service is available.
// An intent scores the share of its keywords found in the utterance; entities
// are extracted with regular expressions whose first group is the value.
type Classifier struct {
	intents  map[string][]string
	entities map[string]*regexp.Regexp
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithIntent adds an intent recognized by any of its keywords.
func WithIntent(name string, keywords ...string) ClassifierOption {
	return func(c *Classifier) {
		for _, k := range keywords {
			c.intents[name] = append(c.intents[name], strings.ToLower(k))
		}
	}
}

// WithEntity adds an entity extracted by pattern. The first capture group is
// the value; without groups the whole match is used.
func WithEntity(name string, pattern *regexp.Regexp) ClassifierOption {
	return func(c *Classifier) {
		c.entities[name] = pattern
	}
}

// NewClassifier creates a keyword classifier.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		intents:  make(map[string][]string),
		entities: make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify implements ports.Classifier. The best intent gets confidence 1
// when any keyword matches exactly as a word, lower for partial hits.
func (c *Classifier) Classify(ctx context.Context, text string, threshold float64) (*domain.NLUResult, error) {
	res := &domain.NLUResult{Text: text}
	words := strings.Fields(strings.ToLower(text))
	wordSet := make(map[string]bool, len(words))
	for _, w := range words {
		wordSet[strings.Trim(w, ".,!?;:")] = true
	}
	lower := strings.ToLower(text)

	names := make([]string, 0, len(c.intents))
	for name := range c.intents {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		score := 0.0
		for _, k := range c.intents[name] {
			switch {
			case wordSet[k]:
				score = 1
			case strings.Contains(lower, k) && score < 0.7:
				score = 0.7
			}
		}
		if score > 0 && (res.Intent == nil || score > res.Intent.Confidence) {
			res.Intent = &domain.Intent{Name: name, Confidence: score}
		}
	}

	entityNames := make([]string, 0, len(c.entities))
	for name := range c.entities {
		entityNames = append(entityNames, name)
	}
	sort.Strings(entityNames)

	for _, name := range entityNames {
		m := c.entities[name].FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := m[0]
		if len(m) > 1 {
			value = m[1]
		}
		res.Entities = append(res.Entities, domain.Entity{Name: name, Value: value, Confidence: 1})
	}
	return res, nil
}
