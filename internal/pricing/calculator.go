// Package pricing computes the monthly price of a storage booking from the
// plan's base price and the optional add-on services a customer selects.
package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Add-on rates in AED.
const (
	ForkliftHourlyRate = 150 // per hour
	CCTVRemoteRate     = 50  // per month
	ClimateControlRate = 3   // per sq ft per month
	DedicatedDockRate  = 500 // per month
	RackingBayRate     = 100 // per bay per month
)

// Forklift is billed per hour of forklift time.
type Forklift struct {
	Selected bool `json:"selected"`
	Hours    int  `json:"hours"`
}

// Toggle is an add-on priced by its selection alone.
type Toggle struct {
	Selected bool `json:"selected"`
}

// Racking is billed per racking bay.
type Racking struct {
	Selected bool `json:"selected"`
	Bays     int  `json:"bays"`
}

// AddOns is the set of optional services layered onto a booking.  The
// zero value selects nothing.
type AddOns struct {
	Forklift       Forklift `json:"forklift"`
	CCTVRemote     Toggle   `json:"cctvRemote"`
	ClimateControl Toggle   `json:"climateControl"`
	DedicatedDock  Toggle   `json:"dedicatedDock"`
	Racking        Racking  `json:"racking"`
}

// Breakdown holds each add-on's monthly contribution.
type Breakdown struct {
	Forklift       float64 `json:"forklift"`
	CCTVRemote     float64 `json:"cctvRemote"`
	ClimateControl float64 `json:"climateControl"`
	DedicatedDock  float64 `json:"dedicatedDock"`
	Racking        float64 `json:"racking"`
}

// Sum returns the total of all add-on contributions.
func (b Breakdown) Sum() float64 {
	return b.Forklift + b.CCTVRemote + b.ClimateControl + b.DedicatedDock + b.Racking
}

// Price returns each add-on's contribution for a unit of sqFt square feet.
// Negative quantities count as zero.
func Price(sqFt int, a AddOns) Breakdown {
	var b Breakdown
	if hours := clamp(a.Forklift.Hours); a.Forklift.Selected && hours > 0 {
		b.Forklift = float64(hours * ForkliftHourlyRate)
	}
	if a.CCTVRemote.Selected {
		b.CCTVRemote = CCTVRemoteRate
	}
	if a.ClimateControl.Selected {
		b.ClimateControl = float64(clamp(sqFt) * ClimateControlRate)
	}
	if a.DedicatedDock.Selected {
		b.DedicatedDock = DedicatedDockRate
	}
	if bays := clamp(a.Racking.Bays); a.Racking.Selected && bays > 0 {
		b.Racking = float64(bays * RackingBayRate)
	}
	return b
}

// ComputeTotal returns basePrice plus every selected add-on.
func ComputeTotal(basePrice float64, sqFt int, a AddOns) float64 {
	return basePrice + Price(sqFt, a).Sum()
}

// ParseSquareFeet extracts the leading integer of a size label, so
// "1,000 SQ FT" and "1000sqft" both give 1000.  Thousands separators are
// skipped; it returns 0 when the label does not start with a digit.
func ParseSquareFeet(label string) int {
	var digits strings.Builder
	for _, r := range strings.TrimSpace(label) {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
			continue
		}
		if r == ',' && digits.Len() > 0 {
			continue
		}
		break
	}
	n, _ := strconv.Atoi(digits.String())
	return n
}

// SizeValue strips every non-digit from a size label.  It is used to
// derive the numeric size of plans created from ad-hoc sizes.
func SizeValue(label string) int {
	var digits strings.Builder
	for _, r := range label {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, _ := strconv.Atoi(digits.String())
	return n
}

// Summary renders one line per selected add-on, in a fixed order.  Forklift
// and racking only appear with a positive quantity.
func Summary(a AddOns) []string {
	var lines []string
	if a.Forklift.Selected && a.Forklift.Hours > 0 {
		lines = append(lines, fmt.Sprintf("Forklift: %d hours @ AED %d/hr", a.Forklift.Hours, ForkliftHourlyRate))
	}
	if a.CCTVRemote.Selected {
		lines = append(lines, fmt.Sprintf("CCTV Remote View: AED %d/month", CCTVRemoteRate))
	}
	if a.ClimateControl.Selected {
		lines = append(lines, fmt.Sprintf("Climate Control: AED %d/sq ft/month", ClimateControlRate))
	}
	if a.DedicatedDock.Selected {
		lines = append(lines, fmt.Sprintf("Dedicated Dock: AED %d/month", DedicatedDockRate))
	}
	if a.Racking.Selected && a.Racking.Bays > 0 {
		lines = append(lines, fmt.Sprintf("Racking: %d bays @ AED %d/bay/month", a.Racking.Bays, RackingBayRate))
	}
	return lines
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
