package identity

import (
	"encoding/json"
	"fmt"
	"os"
)

// SourcePattern describes one known listing portal.
type SourcePattern struct {
	Source    string   `json:"source"`
	Hosts     []string `json:"hosts"`
	NumericID bool     `json:"numeric_id"`
}

// Registry maps hostnames to portal sources. Loaded once at startup, immutable
// afterwards.
type Registry struct {
	patterns []SourcePattern
}

// NewRegistry builds a registry from explicit patterns.
func NewRegistry(patterns []SourcePattern) *Registry {
	return &Registry{patterns: patterns}
}

// DefaultRegistry returns the built-in portal registry.
func DefaultRegistry() *Registry {
	return NewRegistry([]SourcePattern{
		{Source: "homegate", Hosts: []string{"homegate.ch"}, NumericID: true},
		{Source: "immoscout24", Hosts: []string{"immoscout24.ch"}, NumericID: true},
		{Source: "newhome", Hosts: []string{"newhome.ch"}, NumericID: true},
		{Source: "flatfox", Hosts: []string{"flatfox.ch"}, NumericID: true},
		{Source: "comparis", Hosts: []string{"comparis.ch"}},
	})
}

// LoadRegistryFromFile reads portal patterns from a JSON file, falling back to
// the built-in registry on read errors.
func LoadRegistryFromFile(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return DefaultRegistry(), fmt.Errorf("read source registry: %w", err)
	}
	var patterns []SourcePattern
	if err := json.Unmarshal(b, &patterns); err != nil {
		return DefaultRegistry(), fmt.Errorf("unmarshal source registry: %w", err)
	}
	return NewRegistry(patterns), nil
}
