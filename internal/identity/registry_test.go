package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sources.json")
	payload := `[{"source": "acme", "hosts": ["acme.example"], "numeric_id": true}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRegistryFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := r.Resolve("https://acme.example/offer/42")
	if got.Source != "acme" || got.ExternalID != "acme:42" {
		t.Fatalf("got %+v", got)
	}
	// A file-loaded registry replaces the built-ins entirely.
	if got := r.Resolve("https://www.homegate.ch/rent/123"); got.Source != SourceOther {
		t.Fatalf("built-in pattern leaked through: %+v", got)
	}
}

func TestLoadRegistryFallsBackToBuiltins(t *testing.T) {
	t.Parallel()

	r, err := LoadRegistryFromFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if got := r.Resolve("https://www.homegate.ch/rent/123"); got.Source != "homegate" {
		t.Fatalf("fallback registry missing built-ins: %+v", got)
	}
}
