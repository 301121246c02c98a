package harvest_test

import (
	"errors"
	"time"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var _ = Describe("LogObserver", func() {
	var (
		hook     *test.Hook
		observer *harvest.LogObserver
	)

	BeforeEach(func() {
		var logger *logrus.Logger
		logger, hook = test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		observer = harvest.NewLogObserver(logger, "run-1")
	})

	It("tags entries with the run id", func() {
		observer.Duplicate("42", "9876543210")

		entry := hook.LastEntry()
		Expect(entry.Level).To(Equal(logrus.InfoLevel))
		Expect(entry.Data).To(HaveKeyWithValue("run_id", "run-1"))
		Expect(entry.Data).To(HaveKeyWithValue("post_id", "42"))
		Expect(entry.Data).To(HaveKeyWithValue("phone_number", "9876543210"))
	})

	It("logs new rows with their context", func() {
		observer.RowProduced("42", harvest.OutputRow{
			Locations:   []string{"pune"},
			Resources:   []string{"oxygen"},
			PhoneNumber: "9876543211",
			PostedAt:    "2021-05-01T10:31:00.000Z",
		})

		entry := hook.LastEntry()
		Expect(entry.Message).To(Equal("New phone number discovered"))
		Expect(entry.Data).To(HaveKeyWithValue("locations", []string{"pune"}))
	})

	It("uses warning and error levels for failures", func() {
		observer.Throttled("search", 449)
		Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))

		observer.WriteFailed(3, errors.New("quota"))
		Expect(hook.LastEntry().Level).To(Equal(logrus.WarnLevel))
		Expect(hook.LastEntry().Data).To(HaveKey(logrus.ErrorKey))

		observer.QueryFailed("q", errors.New("boom"), false)
		Expect(hook.LastEntry().Level).To(Equal(logrus.ErrorLevel))
		Expect(hook.LastEntry().Data).To(HaveKeyWithValue("will_retry", false))
	})

	It("reports pauses with their length", func() {
		observer.Pausing("sink", time.Minute, 60)
		Expect(hook.LastEntry().Data).To(HaveKeyWithValue("pause", "1m0s"))
	})

	It("satisfies the observer interface alongside the no-op one", func() {
		observers := []harvest.Observer{observer, harvest.NopObserver{}}
		for _, o := range observers {
			o.PageFetched("q", 1, 0, 1)
			o.NoResults("q")
		}
		Expect(hook.AllEntries()).To(HaveLen(2))
	})
})
