package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveAddress", func() {
	var registry []AddressEntry

	BeforeEach(func() {
		registry = []AddressEntry{
			{Address: "Vilniaus g. 10", Station: "A"},
			{Address: "Savanorių pr. 188, Vilnius", Station: "B"},
		}
	})

	When("the candidate differs only by OCR confusion", func() {
		It("should resolve 0/O swaps within the threshold", func() {
			entry, ok := ResolveAddress("Vilniaus g. 1O", registry, 3)
			Expect(ok).To(BeTrue())
			Expect(entry.Station).To(Equal("A"))
			Expect(entry.Address).To(Equal("Vilniaus g. 10"))
		})

		It("should pick the closest entry", func() {
			entry, ok := ResolveAddress("Savanorių pr. 188, Vilniu", registry, 3)
			Expect(ok).To(BeTrue())
			Expect(entry.Station).To(Equal("B"))
		})
	})

	When("the candidate is wildly different", func() {
		It("should report no match", func() {
			_, ok := ResolveAddress("Kauno g. 1, Klaipėda", registry, 3)
			Expect(ok).To(BeFalse())
		})
	})

	When("the candidate is empty", func() {
		It("should report no match immediately", func() {
			_, ok := ResolveAddress("", registry, 3)
			Expect(ok).To(BeFalse())
		})
	})

	When("the registry is empty", func() {
		It("should report no match", func() {
			_, ok := ResolveAddress("Vilniaus g. 10", nil, 3)
			Expect(ok).To(BeFalse())
		})
	})

	When("an exact match exists", func() {
		It("should resolve at distance zero", func() {
			entry, ok := ResolveAddress("Vilniaus g. 10", registry, 3)
			Expect(ok).To(BeTrue())
			Expect(entry.Station).To(Equal("A"))
		})
	})
})

var _ = Describe("levenshtein", func() {
	It("should be zero for identical strings", func() {
		Expect(levenshtein("kvitas", "kvitas")).To(Equal(0))
	})

	It("should equal the length against the empty string", func() {
		Expect(levenshtein("", "abc")).To(Equal(3))
		Expect(levenshtein("abc", "")).To(Equal(3))
	})

	It("should count substitutions", func() {
		Expect(levenshtein("kitten", "sitting")).To(Equal(3))
	})

	It("should be symmetric", func() {
		Expect(levenshtein("flaw", "lawn")).To(Equal(levenshtein("lawn", "flaw")))
	})

	It("should count runes, not bytes", func() {
		Expect(levenshtein("Savanorių", "Savanoriu")).To(Equal(1))
	})
})
