// Package flows embeds the default dockwise conversation and the keyword
// model used when no NLU server is available.
package flows

import (
	"embed"
	"fmt"
	"regexp"

	"github.com/aretw0/dockwise/pkg/adapters/file"
	"github.com/aretw0/dockwise/pkg/adapters/memory"
	"gopkg.in/yaml.v3"
)

// Flow references of the embedded files.
const (
	Main   = "main"
	Global = "global"
)

//go:embed main.yaml run.yaml common.yaml global.yaml
var FS embed.FS

//go:embed offline.yaml
var offline []byte

// Resolver resolves references against the embedded flows.
func Resolver() *file.Resolver {
	return file.NewResolver(FS)
}

// OfflineModel lists the keywords of each intent and the pattern of each entity.
type OfflineModel struct {
	Intents  map[string][]string `yaml:"intents"`
	Entities map[string]string   `yaml:"entities"`
}

// LoadOfflineModel decodes the embedded keyword model.
func LoadOfflineModel() (*OfflineModel, error) {
	var m OfflineModel
	if err := yaml.Unmarshal(offline, &m); err != nil {
		return nil, fmt.Errorf("decode offline model: %w", err)
	}
	return &m, nil
}

// Classifier builds a keyword classifier from the model.
func (m *OfflineModel) Classifier() (*memory.Classifier, error) {
	opts := make([]memory.ClassifierOption, 0, len(m.Intents)+len(m.Entities))
	for intent, keywords := range m.Intents {
		opts = append(opts, memory.WithIntent(intent, keywords...))
	}
	for entity, pattern := range m.Entities {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", entity, err)
		}
		opts = append(opts, memory.WithEntity(entity, re))
	}
	return memory.NewClassifier(opts...), nil
}

// OfflineClassifier is LoadOfflineModel followed by Classifier.
func OfflineClassifier() (*memory.Classifier, error) {
	m, err := LoadOfflineModel()
	if err != nil {
		return nil, err
	}
	return m.Classifier()
}
