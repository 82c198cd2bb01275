package report

import "math"

// Divisors for relatable equivalents, in kg CO2 per unit.
const (
	// MilesDrivenKg is kg CO2 per mile of an average passenger vehicle.
	MilesDrivenKg = 0.192
	// SmartphoneChargeKg is kg CO2 per full smartphone charge.
	SmartphoneChargeKg = 0.00822
	// MinEquivalentKg is the smallest total that gets equivalents at all.
	MinEquivalentKg = 1.0
)

// Equivalent expresses an emission in an everyday unit.
type Equivalent struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Equivalents converts kg into miles driven and smartphones charged. Totals
// below MinEquivalentKg, or non-finite input, yield no equivalents.
func Equivalents(kg float64) []Equivalent {
	if math.IsNaN(kg) || math.IsInf(kg, 0) || kg < MinEquivalentKg {
		return []Equivalent{}
	}
	return []Equivalent{
		{Kind: "miles_driven", Value: kg / MilesDrivenKg, Label: "miles driven"},
		{Kind: "smartphones_charged", Value: kg / SmartphoneChargeKg, Label: "smartphones charged"},
	}
}
