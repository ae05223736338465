// Package synthetic produces plausible market data when the upstream API is
// unreachable. Values for well-known assets stay inside that asset's price
// regime so repeated calls look like the same market, while injected jitter
// keeps them from being byte-identical. Generation is pure computation and
// never fails.
package synthetic

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/crypto-dashboard/internal/model"
)

// regime pins a well-known asset to a realistic magnitude band.
type regime struct {
	name       string
	symbol     string
	price      float64
	volatility float64
	marketCap  float64
	volume     float64
	rank       int
	change24h  float64
}

// Price regimes for well-known assets. Anything else falls back to a generic
// low-cap profile derived from the id string.
var regimes = map[string]regime{
	"bitcoin":     {"Bitcoin", "btc", 65000, 0.05, 1.25e12, 2.85e10, 1, 2.5},
	"ethereum":    {"Ethereum", "eth", 3500, 0.07, 4.2e11, 1.56e10, 2, 1.8},
	"tether":      {"Tether", "usdt", 1.0, 0.01, 8.3e10, 5.6e10, 3, 0.1},
	"binancecoin": {"Binance Coin", "bnb", 600, 0.06, 9.3e10, 2.0e9, 4, 1.2},
	"solana":      {"Solana", "sol", 150, 0.09, 6.5e10, 3.2e9, 5, 3.5},
	"ripple":      {"XRP", "xrp", 0.55, 0.07, 3.2e10, 1.2e9, 6, 1.0},
	"xrp":         {"XRP", "xrp", 0.55, 0.07, 3.2e10, 1.2e9, 6, 1.0},
	"cardano":     {"Cardano", "ada", 0.45, 0.06, 1.58e10, 5.2e8, 9, -0.8},
	"dogecoin":    {"Dogecoin", "doge", 0.12, 0.12, 2.0e10, 1.8e9, 10, 4.0},
	"avalanche-2": {"Avalanche", "avax", 35, 0.10, 1.2e10, 7.0e8, 11, 1.8},
	"polkadot":    {"Polkadot", "dot", 6.5, 0.08, 8.7e9, 3.7e8, 12, 2.2},
	"chainlink":   {"Chainlink", "link", 15, 0.09, 8.5e9, 6.5e8, 14, 2.1},
	"litecoin":    {"Litecoin", "ltc", 90, 0.08, 6.5e9, 4.5e8, 15, 0.8},
	"immutable-x": {"Immutable X", "imx", 2.15, 0.10, 2.5e9, 1.2e8, 42, 3.7},
	"shiba-inu":   {"Shiba Inu", "shib", 0.00001, 0.15, 7.0e9, 3.5e8, 18, 5.2},
}

// rankedIDs lists the known regimes by market-cap rank, for paginated
// synthetic listings.
var rankedIDs = func() []string {
	ids := make([]string, 0, len(regimes))
	for id := range regimes {
		if id == "xrp" { // alias of ripple
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return regimes[ids[i]].rank < regimes[ids[j]].rank
	})
	return ids
}()

// Generator produces synthetic market data. The random source is injected so
// tests can fix the seed; access to it is serialized for concurrent handlers.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a generator seeded from the clock.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates a generator with a fixed seed.
func NewWithSeed(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// WithClock overrides the time source used for series timestamps.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

// jitter returns a multiplier in [1-spread, 1+spread].
func (g *Generator) jitter(spread float64) float64 {
	return 1 + (g.float()*2-1)*spread
}

func (g *Generator) regimeFor(coinID string) regime {
	if r, ok := regimes[coinID]; ok {
		return r
	}
	return regime{
		name:       genericName(coinID),
		symbol:     genericSymbol(coinID),
		price:      1.0,
		volatility: 0.08,
		marketCap:  1.0e8 + g.float()*9.0e8,
		volume:     5.0e6 + g.float()*4.5e7,
		rank:       50 + g.intn(100),
		change24h:  g.float()*10 - 5,
	}
}

// Listing produces one market snapshot. Every numeric field is populated so
// downstream consumers never need nil checks.
func (g *Generator) Listing(coinID string) model.CoinListing {
	r := g.regimeFor(coinID)
	price := r.price * g.jitter(0.02)

	return model.CoinListing{
		ID:                       coinID,
		Symbol:                   r.symbol,
		Name:                     r.name,
		Image:                    "",
		CurrentPrice:             price,
		PriceChangePercentage24h: r.change24h + (g.float()*0.6 - 0.3),
		MarketCap:                r.marketCap * g.jitter(0.02),
		MarketCapRank:            r.rank,
		TotalVolume:              r.volume * g.jitter(0.05),
		High24h:                  price * 1.02,
		Low24h:                   price * 0.98,
	}
}

// ListingPage paginates across the known regimes.
func (g *Generator) ListingPage(page, perPage int) model.ListingPage {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	end := start + perPage
	if start > len(rankedIDs) {
		start = len(rankedIDs)
	}
	if end > len(rankedIDs) {
		end = len(rankedIDs)
	}

	coins := make([]model.CoinListing, 0, end-start)
	for _, id := range rankedIDs[start:end] {
		coins = append(coins, g.Listing(id))
	}
	return model.ListingPage{
		Coins:   coins,
		HasMore: end < len(rankedIDs),
	}
}

// Listings produces one snapshot per requested id, in the given order.
func (g *Generator) Listings(ids []string) []model.CoinListing {
	coins := make([]model.CoinListing, 0, len(ids))
	for _, id := range ids {
		coins = append(coins, g.Listing(id))
	}
	return coins
}

// Detail produces a full coin-page payload.
func (g *Generator) Detail(coinID string) model.CoinDetail {
	listing := g.Listing(coinID)
	now := g.now()

	return model.CoinDetail{
		CoinListing:    listing,
		Description:    fmt.Sprintf("%s is a cryptocurrency token. This is simulated data shown because live market data could not be fetched.", listing.Name),
		PriceChange24h: listing.CurrentPrice * listing.PriceChangePercentage24h / 100,
		ATH:            listing.CurrentPrice * (2 + g.float()*3),
		ATHDate:        now.AddDate(-1, -g.intn(10), 0),
		ATL:            listing.CurrentPrice * (0.05 + g.float()*0.1),
		ATLDate:        now.AddDate(-4, -g.intn(10), 0),
	}
}

// ChartSeries generates days daily points: a sinusoidal trend scaled by the
// asset's volatility plus bounded random noise. Timestamps ascend strictly,
// one per day, ending yesterday.
func (g *Generator) ChartSeries(coinID string, days int, kind model.ChartKind) model.ChartSeries {
	r := g.regimeFor(coinID)

	base, wave, noise := seriesShape(r, kind)

	now := g.now()
	points := make([]model.ChartPoint, days)
	for i := 0; i < days; i++ {
		value := base * (1 + math.Sin(float64(i)/wave.period)*wave.amplitude + (g.float()-0.5)*noise)
		points[i] = model.ChartPoint{
			Timestamp: now.AddDate(0, 0, -(days - i)),
			Value:     value,
		}
	}

	return model.ChartSeries{
		CoinID: coinID,
		Kind:   kind,
		Points: points,
	}
}

type waveform struct {
	period    float64
	amplitude float64
}

// seriesShape picks the oscillation family per series kind: prices move
// smoothly, market caps slower, volumes spikier.
func seriesShape(r regime, kind model.ChartKind) (base float64, wave waveform, noise float64) {
	switch kind {
	case model.ChartMarketCaps:
		base = r.price * estimatedSupply(r.price)
		return base, waveform{period: 12, amplitude: r.volatility * 0.8}, r.volatility * 0.2
	case model.ChartVolumes:
		base = r.price * volumeScale(r.price)
		return base, waveform{period: 5, amplitude: r.volatility * 1.5}, r.volatility * 0.8
	default:
		return r.price, waveform{period: 10, amplitude: r.volatility}, r.volatility * 0.4
	}
}

// estimatedSupply maps a price band to a plausible circulating supply.
func estimatedSupply(price float64) float64 {
	switch {
	case price < 0.01:
		return 1e12
	case price < 1:
		return 5e10
	case price < 100:
		return 1e9
	default:
		return 2e7
	}
}

func volumeScale(price float64) float64 {
	switch {
	case price < 0.01:
		return 5e10
	case price < 1:
		return 5e9
	case price < 100:
		return 5e7
	default:
		return 5e5
	}
}

// ComparisonSeries generates two independently-jittered price series for a
// side-by-side view. Each gets its own random trend direction and one
// injected market-event spike on a random day, which models realistic
// divergence rather than real correlation.
func (g *Generator) ComparisonSeries(baseID, counterID string, days int) (model.ChartSeries, model.ChartSeries) {
	base := g.comparisonLeg(baseID, days, math.Sin, 10)
	counter := g.comparisonLeg(counterID, days, math.Cos, 8)
	return base, counter
}

func (g *Generator) comparisonLeg(coinID string, days int, osc func(float64) float64, period float64) model.ChartSeries {
	r := g.regimeFor(coinID)

	trend := 1.0
	if g.float() > 0.5 {
		trend = -1.0
	}
	trendStrength := g.float() * 0.01
	eventDay := g.intn(days)
	eventImpact := (g.float()*0.1 + 0.05)
	if g.float() > 0.5 {
		eventImpact = -eventImpact
	}

	now := g.now()
	points := make([]model.ChartPoint, days)
	for i := 0; i < days; i++ {
		value := r.price
		value *= 1 + (float64(i)/float64(days))*trend*trendStrength
		value *= 1 + osc(float64(i)/period)*r.volatility
		value *= 1 + (g.float()-0.5)*r.volatility*0.4
		if i == eventDay {
			value *= 1 + eventImpact
		}
		points[i] = model.ChartPoint{
			Timestamp: now.AddDate(0, 0, -(days - i)),
			Value:     value,
		}
	}

	return model.ChartSeries{
		CoinID: coinID,
		Kind:   model.ChartPrices,
		Points: points,
	}
}

// SearchResults matches the known assets by name or symbol substring.
func (g *Generator) SearchResults(query string) []model.SearchResult {
	q := strings.ToLower(query)
	results := make([]model.SearchResult, 0)
	for _, id := range rankedIDs {
		r := regimes[id]
		if strings.Contains(strings.ToLower(r.name), q) || strings.Contains(r.symbol, q) {
			results = append(results, model.SearchResult{
				ID:            id,
				Symbol:        r.symbol,
				Name:          r.name,
				MarketCapRank: r.rank,
			})
		}
	}
	return results
}

// genericName turns "render-token" into "Render Token".
func genericName(coinID string) string {
	words := strings.Split(coinID, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// genericSymbol derives a short ticker from the id's first segment.
func genericSymbol(coinID string) string {
	head := strings.SplitN(coinID, "-", 2)[0]
	if len(head) > 3 {
		head = head[:3]
	}
	return strings.ToLower(head)
}
