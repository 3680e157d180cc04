package report

import "math"

// RatioCategory classifies a group's attendance-to-enrollment ratio into
// the in-reach / good / outreach bands used to flag groups needing
// attention.
type RatioCategory string

const (
	// NeedsInReach: a low ratio, the group should re-engage its own roster.
	NeedsInReach RatioCategory = "needs_inreach"
	// GoodRatio: the healthy band between the two thresholds.
	GoodRatio RatioCategory = "good_ratio"
	// NeedsOutreach: attendance outgrew enrollment, the group should recruit.
	NeedsOutreach RatioCategory = "needs_outreach"
	// NoData: zero enrollment or zero attendance, nothing to classify.
	NoData RatioCategory = "no_data"
)

// Classify derives the category from an enrollment denominator and an
// attendance numerator. Zero on either side short-circuits to NoData.
func Classify(enrollment, attendance int, th Thresholds) RatioCategory {
	if enrollment == 0 || attendance == 0 {
		return NoData
	}
	pct := Percent(enrollment, attendance)
	switch {
	case pct <= float64(th.InReachMax):
		return NeedsInReach
	case pct <= float64(th.GoodMax):
		return GoodRatio
	default:
		return NeedsOutreach
	}
}

// Percent is attendance over enrollment as a percentage, rounded to one
// decimal place. Zero enrollment yields 0.
func Percent(enrollment, attendance int) float64 {
	if enrollment == 0 {
		return 0
	}
	return math.Round(float64(attendance)/float64(enrollment)*1000) / 10
}

// RatioCell is one scope's classification for both the regular period and
// the last-Sunday-only view. Both numerators share one enrollment
// denominator.
type RatioCell struct {
	Enrollment         int           `json:"enrollment"`
	Attendance         int           `json:"attendance"`
	LastSunday         int           `json:"lastSunday"`
	Percent            float64       `json:"percent"`
	Category           RatioCategory `json:"category"`
	LastSundayPercent  float64       `json:"lastSundayPercent"`
	LastSundayCategory RatioCategory `json:"lastSundayCategory"`
}

// NewRatioCell classifies both views of one scope in one step.
func NewRatioCell(enrollment, attendance, lastSunday int, th Thresholds) RatioCell {
	return RatioCell{
		Enrollment:         enrollment,
		Attendance:         attendance,
		LastSunday:         lastSunday,
		Percent:            Percent(enrollment, attendance),
		Category:           Classify(enrollment, attendance, th),
		LastSundayPercent:  Percent(enrollment, lastSunday),
		LastSundayCategory: Classify(enrollment, lastSunday, th),
	}
}
