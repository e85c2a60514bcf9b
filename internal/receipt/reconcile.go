package receipt

import (
	"math"
	"strconv"
	"strings"
)

// Reconciliation reports what Reconcile did to a record: at most one
// derived field, and an optional consistency warning when all three
// numeric fields were already present but disagree.
type Reconciliation struct {
	DerivedField string
	DerivedValue float64
	Warning      *ConsistencyWarning
}

// ConsistencyWarning flags amount != liters*price beyond tolerance.
// It is advisory: the extracted fields are left untouched.
type ConsistencyWarning struct {
	Amount    float64
	Computed  float64
	Tolerance float64
}

// Reconcile fills a missing numeric field using amount = liters * price
// when exactly one of the three is absent, or validates the identity
// when all three are present. Derived values that come out zero or
// negative are discarded rather than propagated, since they can only be
// the product of garbled OCR. A malformed decimal in any present field
// disables the whole call and leaves the record unchanged.
func Reconcile(f *Fields, tolerance float64) Reconciliation {
	amount, hasAmount, ok1 := parseDecimal(f.Amount)
	liters, hasLiters, ok2 := parseDecimal(f.FuelLiters)
	price, hasPrice, ok3 := parseDecimal(f.FuelPricePerLiter)
	if !ok1 || !ok2 || !ok3 {
		return Reconciliation{}
	}

	switch {
	case hasAmount && hasLiters && !hasPrice:
		if v := round(amount/liters, 3); v > 0 {
			f.FuelPricePerLiter = formatDecimal(v)
			return Reconciliation{DerivedField: "fuel_price_per_liter", DerivedValue: v}
		}
	case hasAmount && hasPrice && !hasLiters:
		if v := round(amount/price, 3); v > 0 {
			f.FuelLiters = formatDecimal(v)
			return Reconciliation{DerivedField: "fuel_liters", DerivedValue: v}
		}
	case hasLiters && hasPrice && !hasAmount:
		if v := round(liters*price, 2); v > 0 {
			f.Amount = formatDecimal(v)
			return Reconciliation{DerivedField: "amount", DerivedValue: v}
		}
	case hasAmount && hasLiters && hasPrice:
		computed := liters * price
		if math.Abs(computed-amount) > tolerance {
			return Reconciliation{Warning: &ConsistencyWarning{
				Amount:    amount,
				Computed:  computed,
				Tolerance: tolerance,
			}}
		}
	}
	return Reconciliation{}
}

// parseDecimal parses a field value, treating a comma as the decimal
// point. Returns (value, present, ok); ok is false only when a present
// value fails to parse.
func parseDecimal(s string) (float64, bool, bool) {
	if s == "" {
		return 0, false, true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false, false
	}
	return v, true, true
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
