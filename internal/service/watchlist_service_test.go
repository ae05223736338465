package service

import (
	"testing"

	"github.com/yourorg/crypto-dashboard/internal/storage"

	"go.uber.org/zap"
)

func newWatchlist(t *testing.T, dir string) *WatchlistService {
	t.Helper()
	store, err := storage.NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return NewWatchlistService(store, zap.NewNop())
}

func TestWatchlistSetSemantics(t *testing.T) {
	w := newWatchlist(t, t.TempDir())

	if !w.Add("bitcoin") {
		t.Fatal("first add must change the set")
	}
	if w.Add("bitcoin") {
		t.Fatal("duplicate add must be a no-op")
	}
	if got := w.List(); len(got) != 1 || got[0] != "bitcoin" {
		t.Fatalf("expected single member, got %v", got)
	}

	if w.Remove("solana") {
		t.Fatal("removing a non-member must be a no-op")
	}
	if !w.Remove("bitcoin") {
		t.Fatal("removing a member must succeed")
	}
	if len(w.List()) != 0 {
		t.Fatal("expected empty watchlist")
	}
}

func TestWatchlistInsertionOrder(t *testing.T) {
	w := newWatchlist(t, t.TempDir())

	for _, id := range []string{"solana", "bitcoin", "cardano"} {
		w.Add(id)
	}
	w.Remove("bitcoin")
	w.Add("dogecoin")

	got := w.List()
	want := []string{"solana", "cardano", "dogecoin"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestWatchlistPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w := newWatchlist(t, dir)
	w.Add("bitcoin")
	w.Add("solana")

	// A fresh instance simulates a session reload.
	reloaded := newWatchlist(t, dir)
	got := reloaded.List()
	if len(got) != 2 || got[0] != "bitcoin" || got[1] != "solana" {
		t.Fatalf("expected persisted watchlist, got %v", got)
	}
	if !reloaded.Contains("solana") {
		t.Fatal("expected membership after reload")
	}
}

func TestWatchlistBlankIDRejected(t *testing.T) {
	w := newWatchlist(t, t.TempDir())

	if w.Add("  ") {
		t.Fatal("blank id must be rejected")
	}
	if len(w.List()) != 0 {
		t.Fatal("expected empty watchlist")
	}
}
