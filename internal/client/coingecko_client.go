package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/crypto-dashboard/internal/model"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// ErrRateLimited signals an HTTP 429 from the upstream API. The retry policy
// treats it as permanent: retrying against a rate limit is wasted budget.
var ErrRateLimited = errors.New("upstream API rate limited")

// IsRateLimited reports whether err stems from an upstream 429.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// CoinGeckoClient handles communication with the CoinGecko API
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCoinGeckoClient creates a new CoinGecko API client
func NewCoinGeckoClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CoinGeckoClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// marketEntry mirrors one element of the /coins/markets response.
type marketEntry struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}

// ListMarkets retrieves one page of market listings ordered by market cap.
func (c *CoinGeckoClient) ListMarkets(ctx context.Context, page, perPage int, currency string) ([]model.CoinListing, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	params.Set("sparkline", "false")

	var entries []marketEntry
	if err := c.getJSON(ctx, "/coins/markets", params, &entries); err != nil {
		return nil, err
	}

	return c.normalizeMarkets(entries), nil
}

// ListMarketsByIDs retrieves listings for an explicit set of coin ids, used
// to resolve the watchlist in one call.
func (c *CoinGeckoClient) ListMarketsByIDs(ctx context.Context, ids []string, currency string) ([]model.CoinListing, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("ids", strings.Join(ids, ","))
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(len(ids)))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	var entries []marketEntry
	if err := c.getJSON(ctx, "/coins/markets", params, &entries); err != nil {
		return nil, err
	}

	return c.normalizeMarkets(entries), nil
}

func (c *CoinGeckoClient) normalizeMarkets(entries []marketEntry) []model.CoinListing {
	listings := make([]model.CoinListing, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" {
			c.logger.Warn("Skipping market entry without id")
			continue
		}
		listings = append(listings, model.CoinListing{
			ID:                       e.ID,
			Symbol:                   e.Symbol,
			Name:                     e.Name,
			Image:                    e.Image,
			CurrentPrice:             e.CurrentPrice,
			PriceChangePercentage24h: e.PriceChangePercentage24h,
			MarketCap:                e.MarketCap,
			MarketCapRank:            e.MarketCapRank,
			TotalVolume:              e.TotalVolume,
			High24h:                  e.High24h,
			Low24h:                   e.Low24h,
		})
	}
	return listings
}

// coinEntry mirrors the parts of /coins/{id} this service consumes.
type coinEntry struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Image  struct {
		Large string `json:"large"`
	} `json:"image"`
	MarketCapRank int               `json:"market_cap_rank"`
	Description   map[string]string `json:"description"`
	MarketData    *struct {
		CurrentPrice             map[string]float64 `json:"current_price"`
		MarketCap                map[string]float64 `json:"market_cap"`
		TotalVolume              map[string]float64 `json:"total_volume"`
		High24h                  map[string]float64 `json:"high_24h"`
		Low24h                   map[string]float64 `json:"low_24h"`
		PriceChange24h           float64            `json:"price_change_24h"`
		PriceChangePercentage24h float64            `json:"price_change_percentage_24h"`
		ATH                      map[string]float64 `json:"ath"`
		ATHDate                  map[string]string  `json:"ath_date"`
		ATL                      map[string]float64 `json:"atl"`
		ATLDate                  map[string]string  `json:"atl_date"`
	} `json:"market_data"`
}

// GetCoin retrieves the detail payload for one coin, flattened to the
// requested currency.
func (c *CoinGeckoClient) GetCoin(ctx context.Context, coinID, currency string) (*model.CoinDetail, error) {
	var entry coinEntry
	if err := c.getJSON(ctx, "/coins/"+url.PathEscape(coinID), nil, &entry); err != nil {
		return nil, err
	}

	// A response without market data is malformed for our purposes and
	// triggers fallback upstream of here.
	if entry.ID == "" || entry.MarketData == nil {
		c.logger.Warn("Coin detail response missing market data",
			zap.String("coin_id", coinID))
		return nil, fmt.Errorf("malformed coin detail response for %q", coinID)
	}

	md := entry.MarketData
	detail := &model.CoinDetail{
		CoinListing: model.CoinListing{
			ID:                       entry.ID,
			Symbol:                   entry.Symbol,
			Name:                     entry.Name,
			Image:                    entry.Image.Large,
			CurrentPrice:             md.CurrentPrice[currency],
			PriceChangePercentage24h: md.PriceChangePercentage24h,
			MarketCap:                md.MarketCap[currency],
			MarketCapRank:            entry.MarketCapRank,
			TotalVolume:              md.TotalVolume[currency],
			High24h:                  md.High24h[currency],
			Low24h:                   md.Low24h[currency],
		},
		Description:    entry.Description["en"],
		PriceChange24h: md.PriceChange24h,
		ATH:            md.ATH[currency],
		ATHDate:        parseTimestamp(md.ATHDate[currency]),
		ATL:            md.ATL[currency],
		ATLDate:        parseTimestamp(md.ATLDate[currency]),
	}
	return detail, nil
}

// chartResponse mirrors /coins/{id}/market_chart: three arrays of
// [unix_ms, value] pairs.
type chartResponse struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// GetMarketChart retrieves one historical series for a coin.
func (c *CoinGeckoClient) GetMarketChart(ctx context.Context, coinID string, days int, currency string, kind model.ChartKind) (*model.ChartSeries, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("days", strconv.Itoa(days))

	var resp chartResponse
	path := "/coins/" + url.PathEscape(coinID) + "/market_chart"
	if err := c.getJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	var raw [][]float64
	switch kind {
	case model.ChartMarketCaps:
		raw = resp.MarketCaps
	case model.ChartVolumes:
		raw = resp.TotalVolumes
	default:
		raw = resp.Prices
	}

	if len(raw) == 0 {
		c.logger.Warn("Market chart response empty",
			zap.String("coin_id", coinID),
			zap.String("kind", string(kind)))
		return nil, fmt.Errorf("empty %s series for %q", kind, coinID)
	}

	points := make([]model.ChartPoint, 0, len(raw))
	for i, pair := range raw {
		if len(pair) < 2 {
			c.logger.Warn("Skipping malformed chart point",
				zap.String("coin_id", coinID),
				zap.Int("index", i))
			continue
		}
		points = append(points, model.ChartPoint{
			Timestamp: time.UnixMilli(int64(pair[0])),
			Value:     pair[1],
		})
	}

	return &model.ChartSeries{
		CoinID: coinID,
		Kind:   kind,
		Points: points,
	}, nil
}

// searchResponse mirrors the coins section of /search.
type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Symbol        string `json:"symbol"`
		Name          string `json:"name"`
		Large         string `json:"large"`
		MarketCapRank int    `json:"market_cap_rank"`
	} `json:"coins"`
}

// Search retrieves lightweight coin summaries matching the query, in
// upstream relevance order.
func (c *CoinGeckoClient) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)

	var resp searchResponse
	if err := c.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(resp.Coins))
	for _, coin := range resp.Coins {
		results = append(results, model.SearchResult{
			ID:            coin.ID,
			Symbol:        coin.Symbol,
			Name:          coin.Name,
			Image:         coin.Large,
			MarketCapRank: coin.MarketCapRank,
		})
	}
	return results, nil
}

// getJSON performs a GET against the upstream API and decodes the response.
func (c *CoinGeckoClient) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = reqURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Calling upstream API", zap.String("url", reqURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Upstream request failed",
			zap.Error(err),
			zap.String("path", path))
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("Upstream rate limit hit", zap.String("path", path))
		return ErrRateLimited
	}

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error("Upstream API error response",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("path", path),
			zap.String("response", string(bodyBytes)))
		return fmt.Errorf("upstream API returned status code %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Failed to decode upstream response",
			zap.Error(err),
			zap.String("path", path))
		return fmt.Errorf("failed to decode upstream response: %w", err)
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
