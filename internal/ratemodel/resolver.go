/*

Two-level rate-model lookup: an exact (protocol, asset) table first, then a
category default keyed by asset class. Resolution never fails; the provenance
tag records which level answered so a scan can be audited.

*/

package ratemodel

import (
	"strings"

	"github.com/crestfi/yra/internal/logger"
)

var resolverLogger = logger.GetForComponent("rate_model_resolver")

// Provenance records which table produced a resolved model.
type Provenance string

const (
	ProvenanceSpecific Provenance = "specific"
	ProvenanceDefault  Provenance = "default"
)

// AssetCategory classifies assets for the fallback table.
type AssetCategory string

const (
	CategoryStablecoin AssetCategory = "stablecoin"
	CategoryMajor      AssetCategory = "major"
	CategoryVolatile   AssetCategory = "volatile"
)

// Canonical symbol sets for category classification. Matching is by
// substring against the upper-cased symbol, so bridged/wrapped variants
// (axlUSDC, WETH.e) classify with their underlying.
var (
	stablecoinSymbols = []string{"USDC", "USDT", "DAI", "FRAX", "LUSD", "GUSD", "TUSD", "USDE"}
	majorSymbols      = []string{"ETH", "WETH", "BTC", "WBTC", "STETH", "CBETH", "RETH"}
)

// protocolModels is the specific (protocol, asset) override table. Parameters
// mirror each protocol's published curve configuration.
var protocolModels = map[string]map[string]Model{
	"aave-v3": {
		"USDC": {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.04, JumpMultiplier: 0.60, Kink: 0.90, ReserveFactor: 0.10},
		"USDT": {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.04, JumpMultiplier: 0.72, Kink: 0.90, ReserveFactor: 0.10},
		"DAI":  {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.04, JumpMultiplier: 0.75, Kink: 0.90, ReserveFactor: 0.10},
		"WETH": {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.033, JumpMultiplier: 0.80, Kink: 0.80, ReserveFactor: 0.15},
		"WBTC": {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.04, JumpMultiplier: 3.00, Kink: 0.45, ReserveFactor: 0.20},
	},
	"compound-v2": {
		"USDC": {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.05, JumpMultiplier: 1.09, Kink: 0.80, ReserveFactor: 0.07},
		"DAI":  {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.05, JumpMultiplier: 1.09, Kink: 0.80, ReserveFactor: 0.15},
		"WETH": {ModelType: "jump-rate", BaseRate: 0.02, Multiplier: 0.10, JumpMultiplier: 2.00, Kink: 0.70, ReserveFactor: 0.20},
	},
	"morpho-blue": {
		"USDC": {ModelType: "adaptive", BaseRate: 0, Multiplier: 0.045, JumpMultiplier: 0.55, Kink: 0.90, ReserveFactor: 0.0},
	},
}

// categoryModels is the fallback table keyed by asset class. Grounded on
// Compound/Aave defaults: stables run a high kink and gentle slope, volatile
// assets a low kink and punitive jump.
var categoryModels = map[AssetCategory]Model{
	CategoryStablecoin: {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.02, JumpMultiplier: 0.60, Kink: 0.90, ReserveFactor: 0.05},
	CategoryMajor:      {ModelType: "jump-rate", BaseRate: 0, Multiplier: 0.04, JumpMultiplier: 0.75, Kink: 0.80, ReserveFactor: 0.10},
	CategoryVolatile:   {ModelType: "jump-rate", BaseRate: 0.02, Multiplier: 0.07, JumpMultiplier: 1.00, Kink: 0.65, ReserveFactor: 0.20},
}

// CategorizeAsset maps a symbol to its asset class by substring match against
// the canonical sets. Anything unrecognized is treated as volatile.
func CategorizeAsset(symbol string) AssetCategory {
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range stablecoinSymbols {
		if strings.Contains(upper, s) {
			return CategoryStablecoin
		}
	}
	for _, s := range majorSymbols {
		if strings.Contains(upper, s) {
			return CategoryMajor
		}
	}
	return CategoryVolatile
}

// Resolve maps (protocol, asset) to a rate model. Exact matches win; on a
// miss the asset-category default answers. Always returns a usable model.
func Resolve(protocol, asset string) (Model, Provenance) {
	if assets, ok := protocolModels[strings.ToLower(strings.TrimSpace(protocol))]; ok {
		if model, ok := assets[strings.ToUpper(strings.TrimSpace(asset))]; ok {
			resolverLogger.Debug().
				Str("protocol", protocol).
				Str("asset", asset).
				Msg("Resolved protocol-specific rate model")
			return model, ProvenanceSpecific
		}
	}

	category := CategorizeAsset(asset)
	model := categoryModels[category]
	resolverLogger.Debug().
		Str("protocol", protocol).
		Str("asset", asset).
		Str("category", string(category)).
		Msg("Falling back to category default rate model")
	return model, ProvenanceDefault
}
