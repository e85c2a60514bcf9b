package receipt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// price on the left of the separator, liters on the right,
	// e.g. "1,560 X 12.820".
	fuelLineRe = regexp.MustCompile(`(\d+[.,]\d+)\s*[xX*]\s*(\d+[.,]\d+)`)

	// Lithuanian street/municipality/village abbreviations.
	addressMarkerRe = regexp.MustCompile(`(g\.|sav\.|k\.)`)

	dateRe = regexp.MustCompile(`\d{4}[./-]\d{2}[./-]\d{2}`)

	timeRe = regexp.MustCompile(`(\d{2}):(\d{2})(?::(\d{2}))?`)

	// "Mokėti"/"Mokėta" and the garbled spellings tesseract produces
	// for them. "Hoxeta" is a known misrecognition artifact.
	amountKeywordRe = regexp.MustCompile(`(?i)(?:Mok[eė]ti|Mok[eė]ta|Moket|Hoxeta)[^\d]*(\d+[.,]\d{2})`)

	// Fallback: any standalone two-decimal number. Lossy, but better
	// than nothing when no payment keyword survived OCR.
	bareAmountRe = regexp.MustCompile(`\d+[.,]\d{2}`)

	fuelTypeRe = regexp.MustCompile(`(?i)Diesel|Petrol|Gasoline|Dyzelinas|Benzinas|Dujos`)
)

// Lithuanian receipt vocabulary used for the language tag.
var lithuanianKeywords = []string{"Mokėti", "Kortelės", "Kvito", "Saugos", "Dokumento", "PVM"}

// Extract parses one OCR text into a field set. It is a pure function:
// no I/O, no state, same text always yields the same result. A field
// whose pattern does not match is simply left empty.
func Extract(text string) Fields {
	var f Fields

	if m := fuelLineRe.FindStringSubmatch(text); m != nil {
		f.FuelPricePerLiter = m[1]
		f.FuelLiters = m[2]
	}

	f.Address = extractAddress(text)

	f.Date = dateRe.FindString(text)

	f.Time = extractTime(text)

	if m := amountKeywordRe.FindStringSubmatch(text); m != nil {
		f.Amount = m[1]
	} else {
		f.Amount = bareAmountRe.FindString(text)
	}

	f.FuelType = fuelTypeRe.FindString(text)

	f.Language = detectLanguage(text)

	return f
}

// extractAddress scans line by line for address markers and builds a
// context window of the previous, current and next line around each hit.
// The longest window wins: longer windows tend to carry the complete
// street + municipality context.
func extractAddress(text string) string {
	lines := strings.Split(text, "\n")
	var best string
	for i, line := range lines {
		if !addressMarkerRe.MatchString(line) {
			continue
		}
		start := i - 1
		if start < 0 {
			start = 0
		}
		end := i + 2
		if end > len(lines) {
			end = len(lines)
		}
		window := strings.TrimSpace(strings.Join(lines[start:end], " "))
		if len(window) > len(best) {
			best = window
		}
	}
	return best
}

// extractTime returns the first in-range HH:MM or HH:MM:SS occurrence.
// Out-of-range tokens (e.g. "99:99" from a garbled line) are rejected
// and scanning continues.
func extractTime(text string) string {
	for _, m := range timeRe.FindAllStringSubmatch(text, -1) {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		ss := 0
		if m[3] != "" {
			ss, _ = strconv.Atoi(m[3])
		}
		if hh < 0 || hh >= 24 || mm < 0 || mm >= 60 || ss < 0 || ss >= 60 {
			continue
		}
		if m[3] != "" {
			return fmt.Sprintf("%02d:%02d:%02d", hh, mm, ss)
		}
		return fmt.Sprintf("%02d:%02d", hh, mm)
	}
	return ""
}

// detectLanguage tags the text "lt" when any Lithuanian receipt keyword
// appears. The tag is a heuristic signal carried through aggregation,
// nothing downstream depends on it.
func detectLanguage(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range lithuanianKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return "lt"
		}
	}
	return "unknown"
}
