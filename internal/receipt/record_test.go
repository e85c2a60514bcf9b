package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DiffFields", func() {
	When("two field sets differ", func() {
		It("should report each differing field with old and new values", func() {
			old := Fields{Amount: "10.00", Date: "2024-01-01", Language: "lt"}
			new := Fields{Amount: "9.00", Date: "2024-01-01", Language: "lt", Station: "A"}

			diffs := DiffFields(old, new)
			Expect(diffs).To(ConsistOf(
				FieldDiff{Field: "amount", Old: "10.00", New: "9.00"},
				FieldDiff{Field: "station", Old: "", New: "A"},
			))
		})
	})

	When("two field sets are equal", func() {
		It("should report nothing", func() {
			f := Fields{Amount: "10.00", Language: "lt"}
			Expect(DiffFields(f, f)).To(BeEmpty())
		})
	})
})

var _ = Describe("Fields", func() {
	Describe("NormalizeDate", func() {
		It("should rewrite dotted dates to dashes", func() {
			f := Fields{Date: "2024.03.15"}
			f.NormalizeDate()
			Expect(f.Date).To(Equal("2024-03-15"))
		})

		It("should rewrite slashed dates to dashes", func() {
			f := Fields{Date: "2024/03/15"}
			f.NormalizeDate()
			Expect(f.Date).To(Equal("2024-03-15"))
		})

		It("should leave an absent date alone", func() {
			f := Fields{}
			f.NormalizeDate()
			Expect(f.Date).To(BeEmpty())
		})
	})

	Describe("IsEmpty", func() {
		It("should treat a bare language tag as empty", func() {
			f := Fields{Language: "unknown"}
			Expect(f.IsEmpty()).To(BeTrue())
		})

		It("should not be empty once any field is recovered", func() {
			f := Fields{Time: "08:15", Language: "unknown"}
			Expect(f.IsEmpty()).To(BeFalse())
		})
	})
})
