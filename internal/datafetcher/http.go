package datafetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/crestfi/yra/internal/types"
)

// HTTPPoolSource fetches pool metadata from the pools API.
type HTTPPoolSource struct {
	baseURL    string
	client     *http.Client
	maxRetries int
}

func NewHTTPPoolSource(baseURL string, timeout time.Duration, maxRetries int) *HTTPPoolSource {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &HTTPPoolSource{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

func (s *HTTPPoolSource) ListPools() ([]types.PoolDescriptor, error) {
	body, err := getWithRetry(s.client, s.baseURL+"/v1/pools", s.maxRetries)
	if err != nil {
		return nil, err
	}

	var pools []types.PoolDescriptor
	if err := json.Unmarshal(body, &pools); err != nil {
		return nil, fmt.Errorf("%w: failed to parse pool list: %w", ErrInvalidResponse, err)
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: pool list empty", ErrDataUnavailable)
	}

	fetchLogger.Info().Int("pools", len(pools)).Msg("Pool metadata fetched")
	return pools, nil
}

type gasContextResponse struct {
	GasPriceGwei   float64 `json:"gas_price_gwei"`
	NativePriceUSD float64 `json:"native_price_usd"`
}

func (s *HTTPPoolSource) GasContext() (float64, float64, error) {
	body, err := getWithRetry(s.client, s.baseURL+"/v1/gas", s.maxRetries)
	if err != nil {
		return 0, 0, err
	}

	var parsed gasContextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, 0, fmt.Errorf("%w: failed to parse gas context: %w", ErrInvalidResponse, err)
	}
	if parsed.GasPriceGwei <= 0 || parsed.NativePriceUSD <= 0 ||
		math.IsNaN(parsed.GasPriceGwei) || math.IsNaN(parsed.NativePriceUSD) {
		return 0, 0, fmt.Errorf("%w: non-positive gas context %+v", ErrInvalidResponse, parsed)
	}
	return parsed.GasPriceGwei, parsed.NativePriceUSD, nil
}

// HTTPSeriesSource fetches historical series from the series API.
type HTTPSeriesSource struct {
	baseURL    string
	client     *http.Client
	maxRetries int
}

func NewHTTPSeriesSource(baseURL string, timeout time.Duration, maxRetries int) *HTTPSeriesSource {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &HTTPSeriesSource{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

type seriesResponse struct {
	Points []struct {
		Timestamp int64   `json:"timestamp"`
		Value     float64 `json:"value"`
	} `json:"points"`
}

func (s *HTTPSeriesSource) UtilizationSeries(pool types.PoolID, days int) ([]types.SeriesPoint, error) {
	return s.fetchSeries("utilization", pool, days)
}

func (s *HTTPSeriesSource) PriceRatioSeries(pool types.PoolID, days int) ([]types.SeriesPoint, error) {
	return s.fetchSeries("price-ratio", pool, days)
}

func (s *HTTPSeriesSource) fetchSeries(kind string, pool types.PoolID, days int) ([]types.SeriesPoint, error) {
	endpoint := fmt.Sprintf("%s/v1/series/%s/%s?days=%d", s.baseURL, kind, url.PathEscape(string(pool)), days)
	body, err := getWithRetry(s.client, endpoint, s.maxRetries)
	if err != nil {
		return nil, err
	}

	var parsed seriesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s series for %s: %w", ErrInvalidResponse, kind, pool, err)
	}
	if len(parsed.Points) == 0 {
		return nil, fmt.Errorf("%w: empty %s series for %s", ErrDataUnavailable, kind, pool)
	}

	points := make([]types.SeriesPoint, 0, len(parsed.Points))
	for i, p := range parsed.Points {
		if p.Timestamp <= 0 {
			return nil, fmt.Errorf("%w: invalid timestamp at index %d for %s", ErrInvalidResponse, i, pool)
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return nil, fmt.Errorf("%w: non-finite value at index %d for %s", ErrInvalidResponse, i, pool)
		}
		points = append(points, types.SeriesPoint{
			Timestamp: time.Unix(p.Timestamp, 0).UTC(),
			Value:     p.Value,
		})
	}

	fetchLogger.Debug().
		Str("kind", kind).
		Str("pool", string(pool)).
		Int("points", len(points)).
		Msg("Series fetched")
	return points, nil
}

// getWithRetry performs a GET with linear backoff between attempts. The
// backoff grows with the attempt number; transient indexer hiccups usually
// clear within a few seconds.
func getWithRetry(client *http.Client, endpoint string, maxRetries int) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := client.Get(endpoint)
		if err != nil {
			lastErr = fmt.Errorf("request failed on attempt %d: %w", attempt, err)
			fetchLogger.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Msg("Provider request failed")
			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response on attempt %d: %w", attempt, readErr)
		} else if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("provider returned status %d on attempt %d", resp.StatusCode, attempt)
		} else {
			return body, nil
		}

		fetchLogger.Warn().Err(lastErr).Str("endpoint", endpoint).Int("attempt", attempt).Msg("Provider response rejected")
		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrDataUnavailable, endpoint, maxRetries, lastErr)
}
