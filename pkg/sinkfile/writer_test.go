package sinkfile_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lisanmuaddib/resource-pull/pkg/sinkfile"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func readRecords(path string) []sinkfile.Record {
	f, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()

	var records []sinkfile.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record sinkfile.Record
		Expect(json.Unmarshal(scanner.Bytes(), &record)).To(Succeed())
		records = append(records, record)
	}
	Expect(scanner.Err()).NotTo(HaveOccurred())
	return records
}

var _ = Describe("Writer", func() {
	var (
		path   string
		writer *sinkfile.Writer
		ctx    context.Context
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "out", "rows.ndjson")
		writer = sinkfile.NewWriter(path)
		ctx = context.Background()
	})

	It("appends one line per row across calls", func() {
		Expect(writer.AppendRows(ctx, "Sheet1", []sinkfile.Row{
			{Cells: []string{"Pune", "Oxygen", "", "9876543210", "2021-05-01", "text\nline"}},
		})).To(Succeed())
		Expect(writer.AppendRows(ctx, "Sheet1", []sinkfile.Row{
			{Cells: []string{"script completed"}, Bold: true},
		})).To(Succeed())

		records := readRecords(path)
		Expect(records).To(HaveLen(2))
		Expect(records[0].Sheet).To(Equal("Sheet1"))
		Expect(records[0].Cells[5]).To(Equal("text\nline"))
		Expect(records[0].Bold).To(BeFalse())
		Expect(records[1].Bold).To(BeTrue())
		Expect(records[1].WrittenAt.IsZero()).To(BeFalse())
	})

	It("does not create the file for an empty batch", func() {
		Expect(writer.AppendRows(ctx, "Sheet1", nil)).To(Succeed())
		_, err := os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("stops on a cancelled context", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := writer.AppendRows(cancelled, "Sheet1", []sinkfile.Row{{Cells: []string{"a"}}})
		Expect(err).To(MatchError(context.Canceled))
	})
})
