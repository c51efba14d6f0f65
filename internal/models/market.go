package models

// Market represents an atomic outcome the engine scores.
// The supported set is closed; any other value is rejected at the boundary.
type Market string

const (
	MarketHomeWin  Market = "home_win"
	MarketDraw     Market = "draw"
	MarketAwayWin  Market = "away_win"
	MarketOver15   Market = "over_1.5"
	MarketOver25   Market = "over_2.5"
	MarketOver35   Market = "over_3.5"
	MarketUnder15  Market = "under_1.5"
	MarketUnder25  Market = "under_2.5"
	MarketUnder35  Market = "under_3.5"
	MarketBTTSYes  Market = "btts_yes"
	MarketBTTSNo   Market = "btts_no"
	MarketDC1X     Market = "dc_1x"
	MarketDCX2     Market = "dc_x2"
	MarketDC12     Market = "dc_12"
	MarketDNBHome  Market = "dnb_home"
	MarketDNBAway  Market = "dnb_away"
)

// allMarkets is the full closed set in a stable order.
var allMarkets = []Market{
	MarketHomeWin, MarketDraw, MarketAwayWin,
	MarketOver15, MarketOver25, MarketOver35,
	MarketUnder15, MarketUnder25, MarketUnder35,
	MarketBTTSYes, MarketBTTSNo,
	MarketDC1X, MarketDCX2, MarketDC12,
	MarketDNBHome, MarketDNBAway,
}

// AllMarkets returns the closed market set
func AllMarkets() []Market {
	out := make([]Market, len(allMarkets))
	copy(out, allMarkets)
	return out
}

// PrimaryMarkets returns the markets scored directly by models.
// Double chance and DNB are always derived from the fused 1X2.
func PrimaryMarkets() []Market {
	return []Market{
		MarketHomeWin, MarketDraw, MarketAwayWin,
		MarketOver15, MarketOver25, MarketOver35,
		MarketUnder15, MarketUnder25, MarketUnder35,
		MarketBTTSYes, MarketBTTSNo,
	}
}

// IsValid reports whether m belongs to the closed set
func (m Market) IsValid() bool {
	for _, v := range allMarkets {
		if m == v {
			return true
		}
	}
	return false
}

// IsDerived reports whether m is computed from fused 1X2 probabilities
func (m Market) IsDerived() bool {
	switch m {
	case MarketDC1X, MarketDCX2, MarketDC12, MarketDNBHome, MarketDNBAway:
		return true
	}
	return false
}

// Complement returns the mutually exclusive partner market for two-way
// groups (over/under at a line, BTTS yes/no) and false otherwise.
func (m Market) Complement() (Market, bool) {
	switch m {
	case MarketOver15:
		return MarketUnder15, true
	case MarketOver25:
		return MarketUnder25, true
	case MarketOver35:
		return MarketUnder35, true
	case MarketUnder15:
		return MarketOver15, true
	case MarketUnder25:
		return MarketOver25, true
	case MarketUnder35:
		return MarketOver35, true
	case MarketBTTSYes:
		return MarketBTTSNo, true
	case MarketBTTSNo:
		return MarketBTTSYes, true
	}
	return "", false
}

// Line returns the goals line for over/under markets, or 0 when not applicable
func (m Market) Line() float64 {
	switch m {
	case MarketOver15, MarketUnder15:
		return 1.5
	case MarketOver25, MarketUnder25:
		return 2.5
	case MarketOver35, MarketUnder35:
		return 3.5
	}
	return 0
}
