package storage

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	doc := []byte(`{"bitcoin":"https://assets.example.com/btc.png"}`)

	if err := store.Save(ctx, "image-registry", doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Load(ctx, "image-registry")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(got) != string(doc) {
		t.Fatalf("round trip mismatch: got %s", got)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Save(ctx, "watchlist", []byte(`["bitcoin"]`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Save(ctx, "watchlist", []byte(`["bitcoin","solana"]`)); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := store.Load(ctx, "watchlist")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(got) != `["bitcoin","solana"]` {
		t.Fatalf("expected latest document, got %s", got)
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	_, err = store.Load(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
