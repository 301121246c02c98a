package runner_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/lisanmuaddib/resource-pull/internal/runner"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Runner", func() {
	var logger *logrus.Logger

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	})

	It("runs the job once without a schedule and returns its error", func() {
		var calls int32
		boom := errors.New("boom")
		r, err := runner.New(func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return boom
		}, "", logger)
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Run(context.Background())).To(MatchError(boom))
		Expect(atomic.LoadInt32(&calls)).To(Equal(int32(1)))
	})

	It("rejects an invalid schedule", func() {
		_, err := runner.New(func(context.Context) error { return nil }, "every two hours", logger)
		Expect(err).To(HaveOccurred())
	})

	It("accepts the six-field two-hour schedule", func() {
		_, err := runner.New(func(context.Context) error { return nil }, "0 0 */2 * * *", logger)
		Expect(err).NotTo(HaveOccurred())
	})

	It("keeps running on schedule after a failed run until cancelled", func() {
		var calls int32
		r, err := runner.New(func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("transient failure")
		}, "@every 1s", logger)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()

		Eventually(func() int32 { return atomic.LoadInt32(&calls) }, 5*time.Second, 50*time.Millisecond).
			Should(BeNumerically(">=", 2))
		Expect(r.LastError()).To(MatchError("transient failure"))

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(MatchError(context.Canceled)))
	})

	It("skips a tick while the previous run is still going", func() {
		var running, overlapped int32
		release := make(chan struct{})
		r, err := runner.New(func(ctx context.Context) error {
			if !atomic.CompareAndSwapInt32(&running, 0, 1) {
				atomic.StoreInt32(&overlapped, 1)
				return nil
			}
			defer atomic.StoreInt32(&running, 0)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		}, "@every 1s", logger)
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- r.Run(ctx) }()

		Eventually(func() int32 { return atomic.LoadInt32(&running) }, 5*time.Second, 20*time.Millisecond).
			Should(Equal(int32(1)))
		Consistently(func() int32 { return atomic.LoadInt32(&overlapped) }, 2500*time.Millisecond, 100*time.Millisecond).
			Should(Equal(int32(0)))
		Expect(r.Runs()).To(Equal(1))

		close(release)
		cancel()
		Eventually(done, 5*time.Second).Should(Receive())
	})
})
