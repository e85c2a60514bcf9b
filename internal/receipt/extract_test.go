package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Extract", func() {
	var (
		text   string
		fields Fields
	)

	JustBeforeEach(func() {
		fields = Extract(text)
	})

	When("parsing a complete Lithuanian fuel receipt", func() {
		BeforeEach(func() {
			text = "UAB Degalai\n" +
				"Savanorių g. 188, Vilnius\n" +
				"LT-03154\n" +
				"2024.03.15 14:32:05\n" +
				"Dyzelinas\n" +
				"1,560 X 32.820\n" +
				"Mokėti 51.20\n" +
				"PVM LT100001111\n"
		})

		It("should extract the price per liter from the left operand", func() {
			Expect(fields.FuelPricePerLiter).To(Equal("1,560"))
		})

		It("should extract the liters from the right operand", func() {
			Expect(fields.FuelLiters).To(Equal("32.820"))
		})

		It("should extract the date", func() {
			Expect(fields.Date).To(Equal("2024.03.15"))
		})

		It("should extract the time with seconds", func() {
			Expect(fields.Time).To(Equal("14:32:05"))
		})

		It("should extract the amount after the payment keyword", func() {
			Expect(fields.Amount).To(Equal("51.20"))
		})

		It("should extract the fuel type", func() {
			Expect(fields.FuelType).To(Equal("Dyzelinas"))
		})

		It("should tag the language as Lithuanian", func() {
			Expect(fields.Language).To(Equal("lt"))
		})
	})

	When("the text has no recognizable fields", func() {
		BeforeEach(func() {
			text = "nothing useful here"
		})

		It("should leave every field empty except the language tag", func() {
			Expect(fields.IsEmpty()).To(BeTrue())
		})

		It("should tag the language as unknown", func() {
			Expect(fields.Language).To(Equal("unknown"))
		})
	})

	When("called twice with the same text", func() {
		BeforeEach(func() {
			text = "Mokėti 12.34\n2023-01-02\nVilniaus g. 10"
		})

		It("should yield identical results", func() {
			Expect(Extract(text)).To(Equal(Extract(text)))
		})
	})

	Describe("address extraction", func() {
		When("several lines carry address markers", func() {
			BeforeEach(func() {
				text = "header\n" +
					"Trumpa g. 1\n" +
					"x\n" +
					"UAB Statoil\n" +
					"Savanorių pr. 188, Vilniaus m. sav.\n" +
					"Kvito nr 42\n"
			})

			It("should choose the longest context window", func() {
				Expect(fields.Address).To(Equal("UAB Statoil Savanorių pr. 188, Vilniaus m. sav. Kvito nr 42"))
			})
		})

		When("the marker is on the first line", func() {
			BeforeEach(func() {
				text = "Vilniaus g. 10\nsecond line"
			})

			It("should build the window without a previous line", func() {
				Expect(fields.Address).To(Equal("Vilniaus g. 10 second line"))
			})
		})

		When("no line carries a marker", func() {
			BeforeEach(func() {
				text = "just a line\nanother line"
			})

			It("should leave the address empty", func() {
				Expect(fields.Address).To(BeEmpty())
			})
		})
	})

	Describe("time extraction", func() {
		When("an out-of-range token precedes a valid one", func() {
			BeforeEach(func() {
				text = "garbage 99:99 more\nat 08:15 done"
			})

			It("should skip the invalid token and keep scanning", func() {
				Expect(fields.Time).To(Equal("08:15"))
			})
		})

		When("only out-of-range tokens appear", func() {
			BeforeEach(func() {
				text = "25:00 and 12:61"
			})

			It("should leave the time empty", func() {
				Expect(fields.Time).To(BeEmpty())
			})
		})

		When("the token has seconds", func() {
			BeforeEach(func() {
				text = "07:05:09"
			})

			It("should keep the seconds", func() {
				Expect(fields.Time).To(Equal("07:05:09"))
			})
		})
	})

	Describe("amount extraction", func() {
		When("the payment keyword is OCR-garbled as Hoxeta", func() {
			BeforeEach(func() {
				text = "Hoxeta: 23,45"
			})

			It("should still match the amount", func() {
				Expect(fields.Amount).To(Equal("23,45"))
			})
		})

		When("no payment keyword is present", func() {
			BeforeEach(func() {
				text = "PVM 21.00 taikomas\nviso 9.99"
			})

			It("should fall back to the first bare two-decimal number", func() {
				// Known lossy fallback: the VAT rate wins over the
				// actual total here.
				Expect(fields.Amount).To(Equal("21.00"))
			})
		})

		When("the amount has more than two decimals", func() {
			BeforeEach(func() {
				text = "Mokėti 1.234"
			})

			It("should take the two-decimal prefix", func() {
				Expect(fields.Amount).To(Equal("1.23"))
			})
		})
	})

	Describe("date extraction", func() {
		When("the date uses mixed separators", func() {
			BeforeEach(func() {
				text = "2024/03-15"
			})

			It("should accept them independently", func() {
				Expect(fields.Date).To(Equal("2024/03-15"))
			})
		})
	})
})
