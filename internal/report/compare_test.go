package report

import "testing"

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		prior     int
		trend     Trend
		changePct float64
	}{
		{"UpTwentyPercent", 120, 100, TrendUp, 20.0},
		{"DownTwentyPercent", 80, 100, TrendDown, -20.0},
		{"FlatWithinBand", 102, 100, TrendFlat, 2.0},
		{"FlatAtBandEdge", 105, 100, TrendFlat, 5.0},
		{"UpJustOutsideBand", 106, 100, TrendUp, 6.0},
		{"NewScope", 100, 0, TrendNew, 0},
		{"BothZero", 0, 0, TrendFlat, 0},
		{"DroppedToZero", 0, 100, TrendDown, -100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.current, tt.prior, 5)
			if got.Trend != tt.trend {
				t.Errorf("Compare(%d, %d).Trend = %v, want %v", tt.current, tt.prior, got.Trend, tt.trend)
			}
			if got.ChangePct != tt.changePct {
				t.Errorf("Compare(%d, %d).ChangePct = %v, want %v", tt.current, tt.prior, got.ChangePct, tt.changePct)
			}
		})
	}
}
