package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeTotal_Example(t *testing.T) {
	a := AddOns{
		Forklift:      Forklift{Selected: true, Hours: 3},
		CCTVRemote:    Toggle{Selected: true},
		DedicatedDock: Toggle{Selected: true},
		Racking:       Racking{Selected: true, Bays: 2},
	}
	assert.Equal(t, 5700.0, ComputeTotal(4500, 1000, a))
}

func TestComputeTotal_AllOffIsBase(t *testing.T) {
	for _, base := range []float64{0, 1, 899.5, 4500} {
		for _, sqFt := range []int{0, 50, 1000, -10} {
			assert.Equal(t, base, ComputeTotal(base, sqFt, AddOns{}))
		}
	}
}

func TestComputeTotal_QuantitiesIgnoredWhenNotSelected(t *testing.T) {
	a := AddOns{
		Forklift: Forklift{Hours: 5},
		Racking:  Racking{Bays: 4},
	}
	assert.Equal(t, 1000.0, ComputeTotal(1000, 200, a))
}

func TestComputeTotal_ZeroAndNegativeQuantities(t *testing.T) {
	a := AddOns{
		Forklift: Forklift{Selected: true, Hours: -3},
		Racking:  Racking{Selected: true, Bays: 0},
	}
	assert.Equal(t, 1000.0, ComputeTotal(1000, 200, a))

	// Flat-rate add-ons charge from the toggle alone.
	flat := AddOns{CCTVRemote: Toggle{Selected: true}, DedicatedDock: Toggle{Selected: true}}
	assert.Equal(t, 1550.0, ComputeTotal(1000, 0, flat))
}

func TestComputeTotal_ClimateControlPerSquareFoot(t *testing.T) {
	a := AddOns{ClimateControl: Toggle{Selected: true}}
	assert.Equal(t, 1300.0, ComputeTotal(1000, 100, a))
	assert.Equal(t, 1000.0, ComputeTotal(1000, -100, a))
}

func TestComputeTotal_MonotonicInQuantity(t *testing.T) {
	base := AddOns{
		Forklift:       Forklift{Selected: true},
		CCTVRemote:     Toggle{Selected: true},
		ClimateControl: Toggle{Selected: true},
		Racking:        Racking{Selected: true},
	}
	prev := ComputeTotal(2000, 500, base)
	for hours := -2; hours <= 20; hours++ {
		a := base
		a.Forklift.Hours = hours
		got := ComputeTotal(2000, 500, a)
		assert.GreaterOrEqual(t, got, prev, "hours=%d", hours)
		prev = got
	}

	prev = ComputeTotal(2000, 500, base)
	for bays := -2; bays <= 20; bays++ {
		a := base
		a.Racking.Bays = bays
		got := ComputeTotal(2000, 500, a)
		assert.GreaterOrEqual(t, got, prev, "bays=%d", bays)
		prev = got
	}

	prev = ComputeTotal(2000, -5, base)
	for sqFt := -5; sqFt <= 2000; sqFt += 50 {
		got := ComputeTotal(2000, sqFt, base)
		assert.GreaterOrEqual(t, got, prev, "sqFt=%d", sqFt)
		prev = got
	}
}

func TestParseSquareFeet(t *testing.T) {
	tests := map[string]int{
		"500 SQ FT":   500,
		"1,000 SQ FT": 1000,
		"1000sqft":    1000,
		" 75 sq ft":   75,
		"SQ FT 500":   0,
		"":            0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSquareFeet(in), in)
	}
}

func TestSizeValue(t *testing.T) {
	assert.Equal(t, 500, SizeValue("500 SQ FT"))
	assert.Equal(t, 1000, SizeValue("1,000 SQ FT"))
	assert.Equal(t, 0, SizeValue("Locker"))
}

func TestSummary(t *testing.T) {
	a := AddOns{
		Forklift:       Forklift{Selected: true, Hours: 3},
		ClimateControl: Toggle{Selected: true},
		Racking:        Racking{Selected: true, Bays: 0},
	}
	assert.Equal(t, []string{
		"Forklift: 3 hours @ AED 150/hr",
		"Climate Control: AED 3/sq ft/month",
	}, Summary(a))
	assert.Empty(t, Summary(AddOns{}))
}
