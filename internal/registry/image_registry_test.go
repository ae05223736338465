package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/yourorg/crypto-dashboard/internal/storage"

	"go.uber.org/zap"
)

func newFileBackedRegistry(t *testing.T, dir string) *ImageRegistry {
	t.Helper()
	store, err := storage.NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return NewImageRegistry(store, zap.NewNop())
}

func TestSetAndGetImage(t *testing.T) {
	reg := newFileBackedRegistry(t, t.TempDir())

	reg.SetImage("bitcoin", "https://assets.example.com/bitcoin.png")

	url, ok := reg.GetImage("bitcoin")
	if !ok || url != "https://assets.example.com/bitcoin.png" {
		t.Fatalf("expected stored url, got %q ok=%v", url, ok)
	}
	if !reg.HasImage("bitcoin") {
		t.Fatal("expected HasImage to report true")
	}
}

func TestPlaceholderRejected(t *testing.T) {
	reg := newFileBackedRegistry(t, t.TempDir())

	reg.SetImage("bitcoin", "/coin-images/placeholder.png")
	if _, ok := reg.GetImage("bitcoin"); ok {
		t.Fatal("placeholder url must never be stored")
	}

	// A placeholder write must not overwrite a previously confirmed URL.
	reg.SetImage("bitcoin", "https://assets.example.com/bitcoin.png")
	reg.SetImage("bitcoin", "/placeholder.svg?height=100&width=100")

	url, _ := reg.GetImage("bitcoin")
	if url != "https://assets.example.com/bitcoin.png" {
		t.Fatalf("confirmed url lost, got %q", url)
	}
}

func TestEmptyValuesRejected(t *testing.T) {
	reg := newFileBackedRegistry(t, t.TempDir())

	reg.SetImage("", "https://assets.example.com/x.png")
	reg.SetImage("bitcoin", "")

	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", reg.Len())
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	reg := newFileBackedRegistry(t, dir)
	reg.SetImage("bitcoin", "https://assets.example.com/bitcoin.png")
	reg.SetImage("solana", "https://assets.example.com/solana.png")

	// A fresh registry instance simulates a process restart.
	reloaded := newFileBackedRegistry(t, dir)
	url, ok := reloaded.GetImage("solana")
	if !ok || url != "https://assets.example.com/solana.png" {
		t.Fatalf("expected persisted url after reload, got %q ok=%v", url, ok)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 persisted entries, got %d", reloaded.Len())
	}
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()

	reg := newFileBackedRegistry(t, dir)
	reg.SetImage("bitcoin", "https://assets.example.com/bitcoin.png")
	reg.ClearCache()

	if reg.Len() != 0 {
		t.Fatal("expected cleared registry")
	}

	// The cleared state must also be the persisted state.
	reloaded := newFileBackedRegistry(t, dir)
	if reloaded.Len() != 0 {
		t.Fatalf("expected cleared state to persist, got %d entries", reloaded.Len())
	}
}

// failingStore simulates a storage layer that is down.
type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("storage unavailable")
}

func TestStorageFailureDegradesToMemory(t *testing.T) {
	reg := NewImageRegistry(failingStore{}, zap.NewNop())

	reg.SetImage("bitcoin", "https://assets.example.com/bitcoin.png")

	url, ok := reg.GetImage("bitcoin")
	if !ok || url != "https://assets.example.com/bitcoin.png" {
		t.Fatalf("expected in-memory value despite storage failure, got %q ok=%v", url, ok)
	}
}
