package model

import "time"

// DataSource identifies where a payload came from.
type DataSource string

const (
	SourceLive      DataSource = "live"
	SourceCache     DataSource = "cache"
	SourceSynthetic DataSource = "synthetic"
)

// CoinListing is a market snapshot for a single asset. Snapshots are
// replaced wholesale on every fetch cycle, never mutated field by field.
type CoinListing struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
}

// CoinDetail extends a listing with descriptive fields shown on the coin page.
type CoinDetail struct {
	CoinListing
	Description    string    `json:"description"`
	PriceChange24h float64   `json:"price_change_24h"`
	ATH            float64   `json:"ath"`
	ATHDate        time.Time `json:"ath_date"`
	ATL            float64   `json:"atl"`
	ATLDate        time.Time `json:"atl_date"`
}

// ChartKind selects which historical series a chart request is for.
type ChartKind string

const (
	ChartPrices     ChartKind = "prices"
	ChartMarketCaps ChartKind = "market_caps"
	ChartVolumes    ChartKind = "total_volumes"
)

// ValidChartKind reports whether s names a supported series.
func ValidChartKind(s string) bool {
	switch ChartKind(s) {
	case ChartPrices, ChartMarketCaps, ChartVolumes:
		return true
	}
	return false
}

// ChartPoint is one (timestamp, value) sample of a series.
type ChartPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ChartSeries holds one coin's historical series, ordered ascending by time.
type ChartSeries struct {
	CoinID string       `json:"coin_id"`
	Kind   ChartKind    `json:"kind"`
	Points []ChartPoint `json:"points"`
}

// SearchResult is the lightweight summary returned by coin search.
type SearchResult struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// ListingPage is one page of listings plus a continuation hint.
type ListingPage struct {
	Coins   []CoinListing `json:"coins"`
	HasMore bool          `json:"has_more"`
}
