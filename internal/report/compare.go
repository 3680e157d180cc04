package report

import "math"

// Trend is the direction of a comparison between two window totals.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
	// TrendNew marks a scope with current activity but no prior baseline.
	TrendNew Trend = "new"
)

// ComparisonResult pairs a current and prior total with the derived trend.
// ChangePct is signed; its magnitude is the percentage moved relative to
// the prior value.
type ComparisonResult struct {
	Current   int     `json:"current"`
	Prior     int     `json:"prior"`
	Trend     Trend   `json:"trend"`
	ChangePct float64 `json:"changePct"`
}

// Compare derives the trend between two totals. A move within flatBandPct
// of the prior value is Flat; a prior of zero with current activity is New.
func Compare(current, prior int, flatBandPct float64) ComparisonResult {
	res := ComparisonResult{Current: current, Prior: prior}

	if prior == 0 {
		if current > 0 {
			res.Trend = TrendNew
		} else {
			res.Trend = TrendFlat
		}
		return res
	}

	res.ChangePct = math.Round(float64(current-prior)/float64(prior)*1000) / 10
	switch {
	case math.Abs(res.ChangePct) <= flatBandPct:
		res.Trend = TrendFlat
	case res.ChangePct > 0:
		res.Trend = TrendUp
	default:
		res.Trend = TrendDown
	}
	return res
}
