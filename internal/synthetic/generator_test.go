package synthetic

import (
	"math"
	"testing"
	"time"

	"github.com/yourorg/crypto-dashboard/internal/model"
)

func testGenerator() *Generator {
	return NewWithSeed(1).WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
}

func TestListingKnownRegime(t *testing.T) {
	g := testGenerator()

	tests := []struct {
		coinID   string
		name     string
		minPrice float64
		maxPrice float64
	}{
		{"bitcoin", "Bitcoin", 50000, 80000},
		{"ethereum", "Ethereum", 3000, 4000},
		{"ripple", "XRP", 0.4, 0.7},
		{"shiba-inu", "Shiba Inu", 0.000005, 0.00002},
	}

	for _, tt := range tests {
		listing := g.Listing(tt.coinID)
		if listing.Name != tt.name {
			t.Errorf("%s: expected name %q, got %q", tt.coinID, tt.name, listing.Name)
		}
		if listing.CurrentPrice < tt.minPrice || listing.CurrentPrice > tt.maxPrice {
			t.Errorf("%s: price %v outside regime [%v, %v]",
				tt.coinID, listing.CurrentPrice, tt.minPrice, tt.maxPrice)
		}
	}
}

func TestListingAllFieldsPopulated(t *testing.T) {
	g := testGenerator()

	for _, id := range []string{"bitcoin", "some-unknown-token"} {
		l := g.Listing(id)
		if l.ID == "" || l.Symbol == "" || l.Name == "" {
			t.Errorf("%s: identity fields must be populated: %+v", id, l)
		}
		for name, v := range map[string]float64{
			"current_price": l.CurrentPrice,
			"market_cap":    l.MarketCap,
			"total_volume":  l.TotalVolume,
			"high_24h":      l.High24h,
			"low_24h":       l.Low24h,
		} {
			if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s: %s must be finite and positive, got %v", id, name, v)
			}
		}
		if l.MarketCapRank <= 0 {
			t.Errorf("%s: rank must be positive, got %d", id, l.MarketCapRank)
		}
	}
}

func TestGenericListingDerivedFromID(t *testing.T) {
	g := testGenerator()

	l := g.Listing("render-token")
	if l.Name != "Render Token" {
		t.Errorf("expected derived name, got %q", l.Name)
	}
	if l.Symbol != "ren" {
		t.Errorf("expected derived symbol, got %q", l.Symbol)
	}
	// Unknown ids land in the sub-dollar-ish generic regime.
	if l.CurrentPrice > 10 {
		t.Errorf("generic price regime too high: %v", l.CurrentPrice)
	}
}

func TestChartSeriesShape(t *testing.T) {
	g := testGenerator()

	for _, kind := range []model.ChartKind{model.ChartPrices, model.ChartMarketCaps, model.ChartVolumes} {
		series := g.ChartSeries("bitcoin", 30, kind)
		if len(series.Points) != 30 {
			t.Fatalf("%s: expected 30 points, got %d", kind, len(series.Points))
		}
		for i, p := range series.Points {
			if p.Value <= 0 || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
				t.Errorf("%s: point %d not finite positive: %v", kind, i, p.Value)
			}
			if i > 0 && !p.Timestamp.After(series.Points[i-1].Timestamp) {
				t.Errorf("%s: timestamps must ascend strictly at %d", kind, i)
			}
		}
	}
}

func TestChartSeriesRegimeBand(t *testing.T) {
	g := testGenerator()

	// ripple sits in the sub-dollar regime; every price point should too.
	series := g.ChartSeries("ripple", 7, model.ChartPrices)
	if len(series.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(series.Points))
	}
	for i, p := range series.Points {
		if p.Value <= 0 || p.Value >= 1 {
			t.Errorf("point %d: %v outside sub-dollar band", i, p.Value)
		}
	}

	// bitcoin stays in the tens of thousands.
	series = g.ChartSeries("bitcoin", 7, model.ChartPrices)
	for i, p := range series.Points {
		if p.Value < 50000 || p.Value > 80000 {
			t.Errorf("point %d: %v outside bitcoin band", i, p.Value)
		}
	}
}

func TestComparisonSeries(t *testing.T) {
	g := testGenerator()

	base, counter := g.ComparisonSeries("bitcoin", "ethereum", 30)
	if len(base.Points) != 30 || len(counter.Points) != 30 {
		t.Fatalf("expected 30 points each, got %d and %d", len(base.Points), len(counter.Points))
	}
	for i := 1; i < 30; i++ {
		if !base.Points[i].Timestamp.After(base.Points[i-1].Timestamp) {
			t.Fatalf("base timestamps must ascend at %d", i)
		}
	}
	// Each leg must stay in its own regime despite trend and event spikes.
	for _, p := range base.Points {
		if p.Value < 40000 || p.Value > 90000 {
			t.Errorf("base value %v left the bitcoin regime", p.Value)
		}
	}
	for _, p := range counter.Points {
		if p.Value < 2500 || p.Value > 4500 {
			t.Errorf("counter value %v left the ethereum regime", p.Value)
		}
	}
}

func TestListingPagePagination(t *testing.T) {
	g := testGenerator()

	first := g.ListingPage(1, 5)
	if len(first.Coins) != 5 {
		t.Fatalf("expected 5 coins, got %d", len(first.Coins))
	}
	if !first.HasMore {
		t.Fatal("expected more pages after the first")
	}
	if first.Coins[0].ID != "bitcoin" {
		t.Fatalf("expected rank order, got %q first", first.Coins[0].ID)
	}

	// Page past the end is empty, not an error.
	far := g.ListingPage(40, 10)
	if len(far.Coins) != 0 || far.HasMore {
		t.Fatalf("expected empty terminal page, got %d coins", len(far.Coins))
	}
}

func TestSearchResults(t *testing.T) {
	g := testGenerator()

	results := g.SearchResults("bit")
	found := false
	for _, r := range results {
		if r.ID == "bitcoin" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected bitcoin in results for \"bit\"")
	}

	if got := g.SearchResults("zzzzzz"); len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}
