// Package config holds persisted preferences and the layered
// resolution used to pick effective values: an explicit session
// override wins over the persisted preference, which wins over the
// built-in default. The layers are plain data passed around by the
// caller; there is no ambient global state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Preference keys.
const (
	KeyBackend       = "backend"
	KeyModel         = "model"
	KeyOllamaURL     = "ollama_url"
	KeyLMStudioURL   = "lmstudio_url"
	KeyDeepStackURL  = "deepstack_url"
	KeyAPIKey        = "api_key"
	KeyMinConfidence = "min_confidence"
	KeyCropDir       = "crop_dir"
)

// Preferences is the persisted configuration file content.
type Preferences struct {
	Backend       string  `json:"backend"`
	Model         string  `json:"model"`
	OllamaURL     string  `json:"ollama_url"`
	LMStudioURL   string  `json:"lmstudio_url"`
	DeepStackURL  string  `json:"deepstack_url"`
	APIKey        string  `json:"api_key,omitempty"`
	MinConfidence float64 `json:"min_confidence"`
	CropDir       string  `json:"crop_dir"`
}

// Default returns the built-in defaults.
func Default() *Preferences {
	return &Preferences{
		Backend:       "ollama",
		Model:         "openbmb/minicpm-v4.5",
		OllamaURL:     "http://localhost:11434",
		LMStudioURL:   "http://localhost:1234",
		DeepStackURL:  "http://localhost:5000",
		MinConfidence: 0.4,
	}
}

// LoadFromFile loads preferences from a JSON file.
func LoadFromFile(filename string) (*Preferences, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var prefs Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &prefs, nil
}

// SaveToFile saves preferences to a JSON file, creating the directory
// if needed.
func (p *Preferences) SaveToFile(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the preferences are usable.
func (p *Preferences) Validate() error {
	switch p.Backend {
	case "", "ollama", "lmstudio":
	default:
		return fmt.Errorf("backend must be ollama or lmstudio, got %q", p.Backend)
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be between 0 and 1")
	}
	return nil
}

// value looks up a preference by key. The bool is false for unset
// (zero) values so the next layer gets consulted.
func (p *Preferences) value(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	switch key {
	case KeyBackend:
		return p.Backend, p.Backend != ""
	case KeyModel:
		return p.Model, p.Model != ""
	case KeyOllamaURL:
		return p.OllamaURL, p.OllamaURL != ""
	case KeyLMStudioURL:
		return p.LMStudioURL, p.LMStudioURL != ""
	case KeyDeepStackURL:
		return p.DeepStackURL, p.DeepStackURL != ""
	case KeyAPIKey:
		return p.APIKey, p.APIKey != ""
	case KeyMinConfidence:
		return strconv.FormatFloat(p.MinConfidence, 'f', -1, 64), p.MinConfidence != 0
	case KeyCropDir:
		return p.CropDir, p.CropDir != ""
	}
	return "", false
}

// Resolver resolves a key through session override, persisted
// preference, and default, in that order.
type Resolver struct {
	// Session holds per-invocation overrides, e.g. from CLI flags.
	Session map[string]string
	// Persisted is the loaded preferences file, may be nil.
	Persisted *Preferences
	// Defaults are the built-in values.
	Defaults *Preferences
}

// NewResolver builds a resolver over the three layers.
func NewResolver(session map[string]string, persisted *Preferences) *Resolver {
	return &Resolver{Session: session, Persisted: persisted, Defaults: Default()}
}

// String resolves key to its effective string value.
func (r *Resolver) String(key string) string {
	if v, ok := r.Session[key]; ok && v != "" {
		return v
	}
	if v, ok := r.Persisted.value(key); ok {
		return v
	}
	if v, ok := r.Defaults.value(key); ok {
		return v
	}
	return ""
}

// Float resolves key to its effective float value; unparseable layers
// fall through to the next one.
func (r *Resolver) Float(key string) float64 {
	for _, layer := range []func() (string, bool){
		func() (string, bool) { v, ok := r.Session[key]; return v, ok && v != "" },
		func() (string, bool) { return r.Persisted.value(key) },
		func() (string, bool) { return r.Defaults.value(key) },
	} {
		if v, ok := layer(); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// GetConfigPath returns the default configuration file path.
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "metascan", "config.json")
}
