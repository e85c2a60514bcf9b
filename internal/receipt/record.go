package receipt

import (
	"strings"
	"time"
)

// Fields holds the values recovered from a receipt. The vocabulary is
// closed: every field the extractor can produce has a named member.
// An empty string means the field was not recovered, never "empty value".
type Fields struct {
	Date              string `json:"date,omitempty"`
	Time              string `json:"time,omitempty"`
	Amount            string `json:"amount,omitempty"`
	FuelType          string `json:"fuel_type,omitempty"`
	FuelLiters        string `json:"fuel_liters,omitempty"`
	FuelPricePerLiter string `json:"fuel_price_per_liter,omitempty"`
	Address           string `json:"address,omitempty"`
	Language          string `json:"language,omitempty"`
	Station           string `json:"station,omitempty"`
}

// fieldAccessor gives the aggregator and differ uniform access to the
// closed field set without reflection.
type fieldAccessor struct {
	name string
	get  func(*Fields) string
	set  func(*Fields, string)
}

var fieldAccessors = []fieldAccessor{
	{"date", func(f *Fields) string { return f.Date }, func(f *Fields, v string) { f.Date = v }},
	{"time", func(f *Fields) string { return f.Time }, func(f *Fields, v string) { f.Time = v }},
	{"amount", func(f *Fields) string { return f.Amount }, func(f *Fields, v string) { f.Amount = v }},
	{"fuel_type", func(f *Fields) string { return f.FuelType }, func(f *Fields, v string) { f.FuelType = v }},
	{"fuel_liters", func(f *Fields) string { return f.FuelLiters }, func(f *Fields, v string) { f.FuelLiters = v }},
	{"fuel_price_per_liter", func(f *Fields) string { return f.FuelPricePerLiter }, func(f *Fields, v string) { f.FuelPricePerLiter = v }},
	{"address", func(f *Fields) string { return f.Address }, func(f *Fields, v string) { f.Address = v }},
	{"language", func(f *Fields) string { return f.Language }, func(f *Fields, v string) { f.Language = v }},
	{"station", func(f *Fields) string { return f.Station }, func(f *Fields, v string) { f.Station = v }},
}

// IsEmpty reports whether no field was recovered. A bare language tag
// does not count: the extractor always emits one, even for empty text.
func (f *Fields) IsEmpty() bool {
	for _, a := range fieldAccessors {
		if a.name == "language" {
			continue
		}
		if a.get(f) != "" {
			return false
		}
	}
	return true
}

// NormalizeDate rewrites a YYYY.MM.DD or YYYY/MM/DD date to YYYY-MM-DD.
// Other values pass through unchanged.
func (f *Fields) NormalizeDate() {
	if f.Date == "" {
		return
	}
	f.Date = strings.NewReplacer(".", "-", "/", "-").Replace(f.Date)
}

// Record is the persisted result of processing one receipt.
type Record struct {
	ID string `json:"id"`
	Fields
	// QRURL is the first verification URL decoded from an embedded QR
	// code across enhancement passes, if any.
	QRURL     string    `json:"qr_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AddressEntry maps a known station address to its station name.
type AddressEntry struct {
	Address string `json:"address"`
	Station string `json:"station"`
}

// FieldDiff describes one field differing between a stored record and a
// freshly processed one.
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// DiffFields compares two field sets and returns the fields whose values
// differ, in declaration order.
func DiffFields(old, new Fields) []FieldDiff {
	var diffs []FieldDiff
	for _, a := range fieldAccessors {
		ov, nv := a.get(&old), a.get(&new)
		if ov != nv {
			diffs = append(diffs, FieldDiff{Field: a.name, Old: ov, New: nv})
		}
	}
	return diffs
}
