package domain

import "fmt"

// Impact class labels, ordered by severity.
const (
	ClassLocal       = "Local damage"
	ClassCityKiller  = "City-killer"
	ClassRegional    = "Regional catastrophe"
	ClassContinental = "Continental devastation"
	ClassExtinction  = "Extinction-level event"
)

// ClassifyImpact buckets an energy yield into a label and a Torino-like scale.
// Each bucket's upper bound is exclusive.
func ClassifyImpact(megatons float64) (string, int) {
	switch {
	case megatons < 1:
		return ClassLocal, 1
	case megatons < 10:
		return ClassCityKiller, 5
	case megatons < 100:
		return ClassRegional, 8
	case megatons < 1000:
		return ClassContinental, 9
	default:
		return ClassExtinction, 10
	}
}

// FormatTNTEquivalent renders a yield with one decimal in the largest unit that
// keeps the value at or above 1 (tons below 0.001 Mt).
func FormatTNTEquivalent(megatons float64) string {
	switch {
	case megatons < 0.001:
		return fmt.Sprintf("%.1f tons TNT", megatons*1e6)
	case megatons < 1:
		return fmt.Sprintf("%.1f kilotons TNT", megatons*1e3)
	case megatons < 1000:
		return fmt.Sprintf("%.1f megatons TNT", megatons)
	default:
		return fmt.Sprintf("%.1f gigatons TNT", megatons/1000)
	}
}
