/*
Data provider boundary. The analysis pipeline consumes pool metadata and
historical series through these interfaces; the HTTP implementations talk to
an indexer service, and the synthetic source backs tests and dry runs.
*/

package datafetcher

import (
	"errors"

	"github.com/crestfi/yra/internal/logger"
	"github.com/crestfi/yra/internal/types"
)

var fetchLogger = logger.GetForComponent("datafetcher")

var (
	ErrDataUnavailable = errors.New("data unavailable from provider")
	ErrInvalidResponse = errors.New("invalid provider response")
)

// PoolMetadataSource lists the candidate pools and the current network gas
// context.
type PoolMetadataSource interface {
	// ListPools returns the pools eligible for analysis.
	ListPools() ([]types.PoolDescriptor, error)

	// GasContext returns the current gas price and native token price.
	GasContext() (gasPriceGwei, nativePriceUSD float64, err error)
}

// HistoricalSource serves the time series the estimators consume.
type HistoricalSource interface {
	// UtilizationSeries returns daily utilization samples for a lending pool
	// over the lookback window.
	UtilizationSeries(pool types.PoolID, days int) ([]types.SeriesPoint, error)

	// PriceRatioSeries returns the daily price ratio of an LP pool's pair
	// over the lookback window.
	PriceRatioSeries(pool types.PoolID, days int) ([]types.SeriesPoint, error)
}
