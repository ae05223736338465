package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yourorg/crypto-dashboard/internal/cache"
	"github.com/yourorg/crypto-dashboard/internal/client"
	"github.com/yourorg/crypto-dashboard/internal/event"
	"github.com/yourorg/crypto-dashboard/internal/model"
	"github.com/yourorg/crypto-dashboard/internal/registry"
	"github.com/yourorg/crypto-dashboard/internal/retry"
	"github.com/yourorg/crypto-dashboard/internal/synthetic"

	"go.uber.org/zap"
)

// User-facing notices surfaced alongside degraded payloads. The rate-limit
// case gets its own wording so users can tell throttling from an outage.
const (
	NoticeSimulated   = "Using simulated data due to API limitations."
	NoticeRateLimited = "API rate limit reached. Using simulated data temporarily."
)

const (
	maxPerPage = 250
	maxDays    = 365
)

// Meta carries the provenance of a payload: where it came from and what, if
// anything, the UI should tell the user about it.
type Meta struct {
	Source    model.DataSource `json:"source"`
	Simulated bool             `json:"simulated"`
	Notice    string           `json:"notice,omitempty"`
}

// Upstream is the slice of the market-data client the service consumes.
type Upstream interface {
	ListMarkets(ctx context.Context, page, perPage int, currency string) ([]model.CoinListing, error)
	ListMarketsByIDs(ctx context.Context, ids []string, currency string) ([]model.CoinListing, error)
	GetCoin(ctx context.Context, coinID, currency string) (*model.CoinDetail, error)
	GetMarketChart(ctx context.Context, coinID string, days int, currency string, kind model.ChartKind) (*model.ChartSeries, error)
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// cachedPayload is what actually sits in the cache: the normalized value
// plus the source it was obtained from, so a cached synthetic result is
// still reported as simulated.
type cachedPayload struct {
	value  interface{}
	source model.DataSource
}

// MarketService resolves every data request to a usable payload: live
// upstream data when possible, cached data within TTL, synthetic data as the
// last resort. It never returns an error to its callers for data operations.
type MarketService struct {
	upstream  Upstream
	cache     cache.Cache
	images    *registry.ImageRegistry
	generator *synthetic.Generator
	retry     *retry.Policy
	events    event.Publisher
	logger    *zap.Logger

	defaultTTL   time.Duration
	syntheticTTL time.Duration
	currency     string

	// degraded tracks cache keys currently served synthetically, so the
	// recovery transition can be observed and published once.
	mu       sync.Mutex
	degraded map[string]bool
}

// NewMarketService creates the fallback-orchestrating market data service.
func NewMarketService(
	upstream Upstream,
	dataCache cache.Cache,
	images *registry.ImageRegistry,
	generator *synthetic.Generator,
	retryPolicy *retry.Policy,
	events event.Publisher,
	defaultTTL, syntheticTTL time.Duration,
	currency string,
	logger *zap.Logger,
) *MarketService {
	return &MarketService{
		upstream:     upstream,
		cache:        dataCache,
		images:       images,
		generator:    generator,
		retry:        retryPolicy,
		events:       events,
		logger:       logger,
		defaultTTL:   defaultTTL,
		syntheticTTL: syntheticTTL,
		currency:     currency,
		degraded:     make(map[string]bool),
	}
}

// ListCoins returns one page of market listings.
func (s *MarketService) ListCoins(ctx context.Context, page, perPage int, currency string) (model.ListingPage, Meta) {
	page, perPage = clampPage(page, perPage)
	currency = s.currencyOrDefault(currency)
	key := fmt.Sprintf("coins-page-%d-%d-%s", page, perPage, currency)

	value, meta := s.resolve(ctx, "list_coins", key, s.defaultTTL,
		func(ctx context.Context) (interface{}, error) {
			listings, err := s.upstream.ListMarkets(ctx, page, perPage, currency)
			if err != nil {
				return nil, err
			}
			s.cacheImages(listings)
			return model.ListingPage{Coins: listings, HasMore: len(listings) == perPage}, nil
		},
		func() interface{} {
			p := s.generator.ListingPage(page, perPage)
			s.fillImagesFromRegistry(p.Coins)
			return p
		},
	)
	return value.(model.ListingPage), meta
}

// ListCoinsByIDs resolves an explicit id set (the watchlist view).
func (s *MarketService) ListCoinsByIDs(ctx context.Context, ids []string, currency string) ([]model.CoinListing, Meta) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return []model.CoinListing{}, Meta{Source: model.SourceLive}
	}
	currency = s.currencyOrDefault(currency)
	key := fmt.Sprintf("coins-ids-%s-%s", strings.Join(ids, ","), currency)

	value, meta := s.resolve(ctx, "list_coins_by_ids", key, s.defaultTTL,
		func(ctx context.Context) (interface{}, error) {
			listings, err := s.upstream.ListMarketsByIDs(ctx, ids, currency)
			if err != nil {
				return nil, err
			}
			s.cacheImages(listings)
			return listings, nil
		},
		func() interface{} {
			listings := s.generator.Listings(ids)
			s.fillImagesFromRegistry(listings)
			return listings
		},
	)
	return value.([]model.CoinListing), meta
}

// GetCoinDetail returns the detail payload for one coin. A blank id yields
// an absent result, not an error.
func (s *MarketService) GetCoinDetail(ctx context.Context, coinID string) (*model.CoinDetail, Meta) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, Meta{Source: model.SourceLive}
	}
	key := "coin-detail-" + coinID

	value, meta := s.resolve(ctx, "get_coin_detail", key, s.defaultTTL,
		func(ctx context.Context) (interface{}, error) {
			detail, err := s.upstream.GetCoin(ctx, coinID, s.currency)
			if err != nil {
				return nil, err
			}
			s.images.SetImage(detail.ID, detail.Image)
			return detail, nil
		},
		func() interface{} {
			detail := s.generator.Detail(coinID)
			if url, ok := s.images.GetImage(coinID); ok {
				detail.Image = url
			}
			return &detail
		},
	)
	return value.(*model.CoinDetail), meta
}

// GetChartSeries returns one historical series for a coin.
func (s *MarketService) GetChartSeries(ctx context.Context, coinID string, days int, kind model.ChartKind, currency string) (model.ChartSeries, Meta) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return model.ChartSeries{Kind: kind, Points: []model.ChartPoint{}}, Meta{Source: model.SourceLive}
	}
	days = clampDays(days)
	currency = s.currencyOrDefault(currency)
	key := fmt.Sprintf("coin-chart-%s-%d-%s-%s", coinID, days, currency, kind)

	value, meta := s.resolve(ctx, "get_chart_series", key, s.defaultTTL,
		func(ctx context.Context) (interface{}, error) {
			series, err := s.upstream.GetMarketChart(ctx, coinID, days, currency, kind)
			if err != nil {
				return nil, err
			}
			return *series, nil
		},
		func() interface{} {
			return s.generator.ChartSeries(coinID, days, kind)
		},
	)
	return value.(model.ChartSeries), meta
}

// comparison bundles both legs of a side-by-side chart for caching.
type comparison struct {
	Base    model.ChartSeries `json:"base"`
	Counter model.ChartSeries `json:"counter"`
}

// GetComparisonSeries returns price series for two coins over the same
// window. Both legs come from the same source: if either live fetch fails,
// the pair is generated together so the chart stays internally consistent.
func (s *MarketService) GetComparisonSeries(ctx context.Context, baseID, counterID string, days int, currency string) (model.ChartSeries, model.ChartSeries, Meta) {
	baseID = strings.TrimSpace(baseID)
	counterID = strings.TrimSpace(counterID)
	days = clampDays(days)
	currency = s.currencyOrDefault(currency)
	key := fmt.Sprintf("compare-chart-%s-%s-%d-%s", baseID, counterID, days, currency)

	value, meta := s.resolve(ctx, "get_comparison_series", key, s.defaultTTL,
		func(ctx context.Context) (interface{}, error) {
			base, err := s.upstream.GetMarketChart(ctx, baseID, days, currency, model.ChartPrices)
			if err != nil {
				return nil, err
			}
			counter, err := s.upstream.GetMarketChart(ctx, counterID, days, currency, model.ChartPrices)
			if err != nil {
				return nil, err
			}
			return comparison{Base: *base, Counter: *counter}, nil
		},
		func() interface{} {
			base, counter := s.generator.ComparisonSeries(baseID, counterID, days)
			return comparison{Base: base, Counter: counter}
		},
	)
	pair := value.(comparison)
	return pair.Base, pair.Counter, meta
}

// Search returns lightweight summaries for a query. An empty query is a
// local validation miss and returns an empty set without touching upstream.
func (s *MarketService) Search(ctx context.Context, query string) ([]model.SearchResult, Meta) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.SearchResult{}, Meta{Source: model.SourceLive}
	}
	key := "search-" + strings.ToLower(query)

	value, meta := s.resolve(ctx, "search", key, s.defaultTTL,
		func(ctx context.Context) (interface{}, error) {
			results, err := s.upstream.Search(ctx, query)
			if err != nil {
				return nil, err
			}
			for _, r := range results {
				s.images.SetImage(r.ID, r.Image)
			}
			return results, nil
		},
		func() interface{} {
			return s.generator.SearchResults(query)
		},
	)
	return value.([]model.SearchResult), meta
}

// InvalidateCache drops cached queries matching the pattern, or everything
// when the pattern is empty. Used by the manual refresh action.
func (s *MarketService) InvalidateCache(pattern string) (int, error) {
	if pattern == "" {
		s.cache.InvalidateAll()
		return -1, nil
	}
	return s.cache.InvalidatePattern(pattern)
}

// resolve is the fallback decision procedure shared by every operation:
// cache hit → cached; live fetch (with retry) → fresh; otherwise synthetic,
// cached briefly so the next request retries the real source soon.
func (s *MarketService) resolve(
	ctx context.Context,
	operation, key string,
	ttl time.Duration,
	fetch func(context.Context) (interface{}, error),
	generate func() interface{},
) (interface{}, Meta) {
	if hit, ok := s.cache.Get(key); ok {
		payload := hit.(cachedPayload)
		meta := Meta{Source: model.SourceCache}
		if payload.source == model.SourceSynthetic {
			meta.Source = model.SourceSynthetic
			meta.Simulated = true
			meta.Notice = NoticeSimulated
		}
		return payload.value, meta
	}

	var value interface{}
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		value = v
		return nil
	})

	if err == nil {
		s.cache.Set(key, cachedPayload{value: value, source: model.SourceLive}, ttl)
		s.markRecovered(ctx, operation, key)
		return value, Meta{Source: model.SourceLive}
	}

	reason := event.ReasonUpstreamFailure
	notice := NoticeSimulated
	if errors.Is(err, client.ErrRateLimited) {
		reason = event.ReasonRateLimited
		notice = NoticeRateLimited
	}

	s.logger.Warn("Falling back to synthetic data",
		zap.String("operation", operation),
		zap.String("cache_key", key),
		zap.String("reason", reason),
		zap.Error(err))

	value = generate()
	s.cache.Set(key, cachedPayload{value: value, source: model.SourceSynthetic}, s.syntheticTTL)
	s.markDegraded(ctx, operation, key, reason)

	return value, Meta{
		Source:    model.SourceSynthetic,
		Simulated: true,
		Notice:    notice,
	}
}

func (s *MarketService) markDegraded(ctx context.Context, operation, key, reason string) {
	s.mu.Lock()
	already := s.degraded[key]
	s.degraded[key] = true
	s.mu.Unlock()

	if !already {
		s.events.Publish(ctx, event.ProvenanceEvent{
			Operation: operation,
			CacheKey:  key,
			Source:    model.SourceSynthetic,
			Reason:    reason,
		})
	}
}

func (s *MarketService) markRecovered(ctx context.Context, operation, key string) {
	s.mu.Lock()
	wasDegraded := s.degraded[key]
	delete(s.degraded, key)
	s.mu.Unlock()

	if wasDegraded {
		s.events.Publish(ctx, event.ProvenanceEvent{
			Operation: operation,
			CacheKey:  key,
			Source:    model.SourceLive,
			Reason:    event.ReasonRecovered,
		})
	}
}

// cacheImages records every non-placeholder icon observed on live listings.
func (s *MarketService) cacheImages(listings []model.CoinListing) {
	for _, l := range listings {
		s.images.SetImage(l.ID, l.Image)
	}
}

// fillImagesFromRegistry decorates synthetic listings with last-known-good
// icons so an outage does not blank every logo.
func (s *MarketService) fillImagesFromRegistry(listings []model.CoinListing) {
	for i := range listings {
		if url, ok := s.images.GetImage(listings[i].ID); ok {
			listings[i].Image = url
		}
	}
}

func (s *MarketService) currencyOrDefault(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return s.currency
	}
	return currency
}

func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	} else if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func clampDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > maxDays {
		return maxDays
	}
	return days
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
