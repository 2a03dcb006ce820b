package extraction

import (
	"encoding/json"
	"math"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Resolve", func() {
	var (
		input    Record
		resolved Record
	)

	JustBeforeEach(func() {
		resolved = Resolve(input)
	})

	When("total and gallons are present without a price", func() {
		BeforeEach(func() {
			input = Extract("Total $40.00 Gallons 10.0")
		})

		It("should derive the price per gallon", func() {
			Expect(resolved.Get(FieldPricePerGallon)).To(Equal(FloatValue(4.0)))
		})

		It("should mark the price as derived", func() {
			Expect(resolved.Derived(FieldPricePerGallon)).To(BeTrue())
			Expect(resolved.DerivedFields()).To(Equal([]Field{FieldPricePerGallon}))
		})

		It("should leave the input record untouched", func() {
			Expect(input.Get(FieldPricePerGallon).Present()).To(BeFalse())
			Expect(input.Derived(FieldPricePerGallon)).To(BeFalse())
		})

		It("should pass the other fields through", func() {
			Expect(resolved.Get(FieldTotal)).To(Equal(FloatValue(40.0)))
			Expect(resolved.Get(FieldGallons)).To(Equal(FloatValue(10.0)))
		})
	})

	When("the quotient needs rounding", func() {
		BeforeEach(func() {
			input = Extract("Total $10.00 Gallons 3")
		})

		It("should round to three decimal places", func() {
			Expect(resolved.Get(FieldPricePerGallon)).To(Equal(FloatValue(3.333)))
		})
	})

	When("gallons is zero", func() {
		BeforeEach(func() {
			input = Extract("Total $40.00 Gallons 0.000")
		})

		It("should leave the price absent", func() {
			Expect(resolved.Get(FieldPricePerGallon).Present()).To(BeFalse())
		})

		It("should not mark anything as derived", func() {
			Expect(resolved.DerivedFields()).To(BeEmpty())
		})
	})

	When("the quotient is too large to scale for rounding", func() {
		BeforeEach(func() {
			input = Extract("Total 1" + strings.Repeat("0", 306) + ".00 Gallons 1")
		})

		It("should keep the unrounded finite quotient", func() {
			price, ok := resolved.Get(FieldPricePerGallon).AsFloat()
			Expect(ok).To(BeTrue())
			Expect(math.IsInf(price, 0)).To(BeFalse())
			Expect(price).To(Equal(1e306))
		})

		It("should still encode as JSON", func() {
			_, err := json.Marshal(resolved)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("a tiny gallons value overflows the quotient", func() {
		BeforeEach(func() {
			input = Extract("Total 5.00 Gallons ." + strings.Repeat("0", 320) + "1")
		})

		It("should parse a positive gallons value", func() {
			gallons, ok := input.Get(FieldGallons).AsFloat()
			Expect(ok).To(BeTrue())
			Expect(gallons).To(BeNumerically(">", 0))
		})

		It("should leave the price absent", func() {
			Expect(resolved.Get(FieldPricePerGallon).Present()).To(BeFalse())
			Expect(resolved.DerivedFields()).To(BeEmpty())
		})

		It("should still encode as JSON", func() {
			_, err := json.Marshal(resolved)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the price was printed", func() {
		BeforeEach(func() {
			input = Extract("Total $40.00 Gallons 10.0 Price/Gallon $3.999")
		})

		It("should keep the printed price", func() {
			Expect(resolved.Get(FieldPricePerGallon)).To(Equal(FloatValue(3.999)))
			Expect(resolved.Derived(FieldPricePerGallon)).To(BeFalse())
		})
	})

	When("the total is missing", func() {
		BeforeEach(func() {
			input = Extract("Gallons 10.0")
		})

		It("should leave the price absent", func() {
			Expect(resolved.Get(FieldPricePerGallon).Present()).To(BeFalse())
		})
	})

	When("gallons is missing", func() {
		BeforeEach(func() {
			input = Extract("Total $40.00")
		})

		It("should leave the price absent", func() {
			Expect(resolved.Get(FieldPricePerGallon).Present()).To(BeFalse())
		})
	})

	When("given the zero Record", func() {
		BeforeEach(func() {
			input = Record{}
		})

		It("should not panic and should leave everything absent", func() {
			Expect(resolved.Present()).To(Equal(0))
		})
	})
})

var _ = Describe("ExtractAndResolve", func() {
	It("should produce the full record for a complete receipt", func() {
		record := ExtractAndResolve(sampleReceipt)

		Expect(record.Get(FieldDate)).To(Equal(StringValue("03/14/2024")))
		Expect(record.Get(FieldTime)).To(Equal(StringValue("10:15 AM")))
		Expect(record.Get(FieldGallons)).To(Equal(FloatValue(12.5)))
		Expect(record.Get(FieldTotal)).To(Equal(FloatValue(43.75)))
		Expect(record.Get(FieldPricePerGallon)).To(Equal(FloatValue(3.5)))
		Expect(record.Get(FieldInvoiceNumber)).To(Equal(StringValue("9091")))
		Expect(record.Get(FieldAddress)).To(Equal(StringValue("100 Main St, Springfield 62704")))
		Expect(record.Get(FieldOdometer)).To(Equal(IntValue(45210)))
		Expect(record.Derived(FieldPricePerGallon)).To(BeTrue())
		Expect(record.Missing()).To(BeEmpty())
	})
})
