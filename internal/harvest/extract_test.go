package harvest_test

import (
	"slices"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractPhoneNumbers", func() {
	It("strips a trunk zero and the 91 country code", func() {
		Expect(harvest.ExtractPhoneNumbers("Call 0-987-654-3210 or 919876543211 now")).
			To(Equal([]string{"9876543210", "9876543211"}))
	})

	It("ignores digit runs shorter than ten", func() {
		Expect(harvest.ExtractPhoneNumbers("beds 12345, ward 6789")).To(BeEmpty())
		Expect(harvest.HasPhoneNumber("beds 12345")).To(BeFalse())
	})

	It("removes spaces, tabs and hyphens inside one number", func() {
		Expect(harvest.ExtractPhoneNumbers("call 98765 43210")).To(Equal([]string{"9876543210"}))
		Expect(harvest.ExtractPhoneNumbers("call 98765\t43210")).To(Equal([]string{"9876543210"}))
		Expect(harvest.ExtractPhoneNumbers("+91 98765-43210")).To(Equal([]string{"9876543210"}))
	})

	It("splits long space separated runs into several numbers", func() {
		Expect(harvest.ExtractPhoneNumbers("Contacts: 9876543210 9876543211 98765-43212")).
			To(Equal([]string{"9876543210", "9876543211", "9876543212"}))
	})

	It("drops short fragments of a split run", func() {
		Expect(harvest.ExtractPhoneNumbers("9876543210 123 9876543211")).
			To(Equal([]string{"9876543210", "9876543211"}))
	})

	It("never yields fewer than ten digits", func() {
		inputs := []string{
			"0-1-2-3-4-5-6-7-8-9",
			"91 0 1 2 3 4 5 6 7 8",
			"1234567890 12 34 56 78 90 1",
			"00000000000 919191919191 0000",
			"ph: 080-2222-3333, 98450 12345 / 9845012346",
		}
		for _, input := range inputs {
			for _, number := range harvest.ExtractPhoneNumbers(input) {
				Expect(len(number)).To(BeNumerically(">=", 10), "input %q", input)
			}
		}
	})

	It("can be ranged over more than once", func() {
		seq := harvest.PhoneNumbers("9876543210 and 09876543211")
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		Expect(first).To(Equal([]string{"9876543210", "9876543211"}))
		Expect(second).To(Equal(first))
	})

	It("stops early when the consumer breaks", func() {
		var got []string
		for number := range harvest.PhoneNumbers("9876543210, 9876543211, 9876543212") {
			got = append(got, number)
			break
		}
		Expect(got).To(Equal([]string{"9876543210"}))
	})
})

var _ = Describe("NormalizePhoneNumber", func() {
	DescribeTable("normalizes prefixes",
		func(input, expected string) {
			Expect(harvest.NormalizePhoneNumber(input)).To(Equal(expected))
		},
		Entry("local number", "9876543210", "9876543210"),
		Entry("trunk prefix", "09876543210", "9876543210"),
		Entry("country code", "919876543210", "9876543210"),
		Entry("eleven digits without trunk zero", "19876543210", "19876543210"),
		Entry("twelve digits with another code", "449876543210", "449876543210"),
		Entry("thirteen digits", "0919876543210", "0919876543210"),
	)

	DescribeTable("is idempotent",
		func(input string) {
			once := harvest.NormalizePhoneNumber(input)
			Expect(harvest.NormalizePhoneNumber(once)).To(Equal(once))
		},
		Entry("local", "9876543210"),
		Entry("trunk", "09876543210"),
		Entry("country code", "919876543210"),
		Entry("country code then zero", "910987654321"),
		Entry("repeated country code", "919191919191"),
	)
})
