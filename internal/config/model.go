package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gridiron-labs/playcall/internal/models"
	"github.com/gridiron-labs/playcall/internal/registry"
	"github.com/gridiron-labs/playcall/internal/situation"
)

// SymbolConfig is one alphabet entry of the model file.
type SymbolConfig struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Label  string `json:"label" yaml:"label"`
}

// ModelConfig is the model file. Alphabet and Default are left nil by
// DefaultModelConfig so a file replaces them instead of merging into them.
type ModelConfig struct {
	MaxDepth       int                `json:"max_depth" yaml:"max_depth"`
	MinExamples    int                `json:"min_examples" yaml:"min_examples"`
	Extensions     []string           `json:"extensions" yaml:"extensions"`
	Alphabet       []SymbolConfig     `json:"alphabet" yaml:"alphabet"`
	Default        map[string]float64 `json:"default" yaml:"default"`
	IdentityWindow int                `json:"identity_window" yaml:"identity_window"`
}

// DefaultModelConfig is the pass/run model with every extension dimension off.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		MaxDepth:       registry.DefaultMaxDepth,
		MinExamples:    registry.DefaultMinExamples,
		IdentityWindow: situation.DefaultIdentityWindow,
	}
}

// LoadModelConfig layers defaults, the file at path (YAML, then JSON) and
// MODEL_* environment overrides, and validates the result.
func LoadModelConfig(path string) (ModelConfig, error) {
	cfg := DefaultModelConfig()

	if path != "" {
		if err := loadModelFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load model config %s: %w", path, err)
		}
	}

	loadModelFromEnv(&cfg)

	if _, err := cfg.Policy(); err != nil {
		return cfg, fmt.Errorf("invalid model config: %w", err)
	}
	return cfg, nil
}

func loadModelFile(path string, cfg *ModelConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadModelFromEnv(cfg *ModelConfig) {
	cfg.MaxDepth = getEnvInt("MODEL_MAX_DEPTH", cfg.MaxDepth)
	cfg.MinExamples = getEnvInt("MODEL_MIN_EXAMPLES", cfg.MinExamples)
	cfg.IdentityWindow = getEnvInt("MODEL_IDENTITY_WINDOW", cfg.IdentityWindow)

	// "none" clears extensions set by the file
	if v, ok := os.LookupEnv("MODEL_EXTENSIONS"); ok {
		cfg.Extensions = nil
		if strings.TrimSpace(v) != "none" {
			for _, name := range strings.Split(v, ",") {
				if name = strings.TrimSpace(name); name != "" {
					cfg.Extensions = append(cfg.Extensions, name)
				}
			}
		}
	}
}

// Policy converts the file form into a validated registry policy.
func (c ModelConfig) Policy() (registry.Policy, error) {
	p := registry.DefaultPolicy()
	p.MaxDepth = c.MaxDepth
	p.MinExamples = c.MinExamples

	ext, err := situation.ParseExtensions(c.Extensions)
	if err != nil {
		return registry.Policy{}, err
	}
	p.Extensions = ext

	if len(c.Alphabet) > 0 {
		symbols := make([]models.Symbol, len(c.Alphabet))
		for i, s := range c.Alphabet {
			symbols[i] = models.Symbol(s.Symbol)
		}
		alphabet, err := models.NewAlphabet(symbols)
		if err != nil {
			return registry.Policy{}, &models.ConfigurationError{Field: "alphabet", Reason: err.Error()}
		}
		for _, s := range c.Alphabet {
			if s.Label != "" {
				alphabet.SetLabel(models.Symbol(s.Symbol), s.Label)
			}
		}
		p.Alphabet = alphabet
		// A custom alphabet needs its own default distribution.
		p.Default = nil
	}

	if len(c.Default) > 0 {
		p.Default = make(map[models.Symbol]float64, len(c.Default))
		for s, prob := range c.Default {
			p.Default[models.Symbol(s)] = prob
		}
	}

	if c.IdentityWindow <= 0 {
		return registry.Policy{}, &models.ConfigurationError{Field: "identity_window", Reason: "must be positive"}
	}

	if err := p.Validate(); err != nil {
		return registry.Policy{}, err
	}
	return p, nil
}
