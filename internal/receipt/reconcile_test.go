package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reconcile", func() {
	var (
		fields Fields
		result Reconciliation
	)

	JustBeforeEach(func() {
		result = Reconcile(&fields, 0.02)
	})

	When("amount and liters are present but price is missing", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "10.00", FuelLiters: "5.0"}
		})

		It("should derive the price per liter", func() {
			Expect(fields.FuelPricePerLiter).To(Equal("2"))
		})

		It("should report the derivation", func() {
			Expect(result.DerivedField).To(Equal("fuel_price_per_liter"))
			Expect(result.DerivedValue).To(Equal(2.0))
		})

		It("should not raise a warning", func() {
			Expect(result.Warning).To(BeNil())
		})
	})

	When("amount and price are present but liters are missing", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "51.20", FuelPricePerLiter: "1,560"}
		})

		It("should derive the liters rounded to 3 decimals", func() {
			Expect(fields.FuelLiters).To(Equal("32.821"))
			Expect(result.DerivedField).To(Equal("fuel_liters"))
		})
	})

	When("liters and price are present but amount is missing", func() {
		BeforeEach(func() {
			fields = Fields{FuelLiters: "32.82", FuelPricePerLiter: "1.56"}
		})

		It("should derive the amount rounded to 2 decimals", func() {
			Expect(fields.Amount).To(Equal("51.2"))
			Expect(result.DerivedField).To(Equal("amount"))
		})
	})

	When("the derived value would not be positive", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "-5", FuelLiters: "1"}
		})

		It("should discard the derivation and leave the field absent", func() {
			Expect(fields.FuelPricePerLiter).To(BeEmpty())
			Expect(result.DerivedField).To(BeEmpty())
		})
	})

	When("all three fields are present and consistent", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "10.00", FuelLiters: "5.0", FuelPricePerLiter: "2.0"}
		})

		It("should not warn within tolerance", func() {
			Expect(result.Warning).To(BeNil())
		})

		It("should leave every field untouched", func() {
			Expect(fields).To(Equal(Fields{Amount: "10.00", FuelLiters: "5.0", FuelPricePerLiter: "2.0"}))
		})
	})

	When("amount differs from liters*price by 0.01", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "9.99", FuelLiters: "5.0", FuelPricePerLiter: "2.0"}
		})

		It("should stay silent inside the default tolerance", func() {
			Expect(result.Warning).To(BeNil())
		})
	})

	When("amount differs from liters*price beyond tolerance", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "9.00", FuelLiters: "5.0", FuelPricePerLiter: "2.0"}
		})

		It("should raise a consistency warning", func() {
			Expect(result.Warning).NotTo(BeNil())
			Expect(result.Warning.Amount).To(Equal(9.00))
			Expect(result.Warning.Computed).To(Equal(10.0))
		})

		It("should not alter any field", func() {
			Expect(fields.Amount).To(Equal("9.00"))
		})
	})

	When("a present field is malformed", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "1o.00", FuelLiters: "5.0"}
		})

		It("should disable derivation for the whole call", func() {
			Expect(fields.FuelPricePerLiter).To(BeEmpty())
			Expect(result).To(Equal(Reconciliation{}))
		})

		It("should preserve the malformed value as extracted", func() {
			Expect(fields.Amount).To(Equal("1o.00"))
		})
	})

	When("comma is used as the decimal separator", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "10,00", FuelLiters: "4,0"}
		})

		It("should parse it as a decimal point", func() {
			Expect(fields.FuelPricePerLiter).To(Equal("2.5"))
		})
	})

	When("only one numeric field is present", func() {
		BeforeEach(func() {
			fields = Fields{Amount: "10.00"}
		})

		It("should do nothing", func() {
			Expect(result).To(Equal(Reconciliation{}))
			Expect(fields).To(Equal(Fields{Amount: "10.00"}))
		})
	})
})
