package receipt

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var db *BoltDB

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("SaveRecord and GetRecord", func() {
		var record *Record

		BeforeEach(func() {
			record = &Record{
				ID: "receipt-001",
				Fields: Fields{
					Date:     "2024-03-15",
					Amount:   "51.20",
					FuelType: "Dyzelinas",
					Address:  "Savanorių pr. 188, Vilnius",
					Station:  "B",
					Language: "lt",
				},
				QRURL:     "https://kvitas.vmi.lt/?doc=abc",
				CreatedAt: time.Date(2024, 3, 15, 14, 32, 0, 0, time.UTC),
			}
			Expect(db.SaveRecord(record)).To(Succeed())
		})

		It("should round-trip the record", func() {
			got, err := db.GetRecord("receipt-001")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(record))
		})

		It("should overwrite on save with the same identifier", func() {
			record.Amount = "9.99"
			Expect(db.SaveRecord(record)).To(Succeed())

			got, err := db.GetRecord("receipt-001")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Amount).To(Equal("9.99"))
		})
	})

	Describe("GetRecord for a missing identifier", func() {
		It("should return an error wrapping ErrNotFound", func() {
			_, err := db.GetRecord("missing")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})

	Describe("ListRecords", func() {
		When("the store is empty", func() {
			It("should return an empty slice", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
			})
		})

		When("records exist", func() {
			BeforeEach(func() {
				Expect(db.SaveRecord(&Record{ID: "a", Fields: Fields{Amount: "1.00"}})).To(Succeed())
				Expect(db.SaveRecord(&Record{ID: "b", Fields: Fields{Amount: "2.00"}})).To(Succeed())
			})

			It("should return all of them", func() {
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
			})
		})
	})
})
