package harvest_test

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/lisanmuaddib/resource-pull/internal/harvest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type permanentErr struct{}

func (permanentErr) Error() string   { return "bad request: i/o timeout in message" }
func (permanentErr) Transient() bool { return false }

var _ = Describe("IsTransient", func() {
	DescribeTable("classifies errors",
		func(err error, expected bool) {
			Expect(harvest.IsTransient(err)).To(Equal(expected))
		},
		Entry("nil", nil, false),
		Entry("self-describing transient", fmt.Errorf("search: %w", transientErr{}), true),
		Entry("self-describing permanent wins over message", permanentErr{}, false),
		Entry("connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true),
		Entry("connection refused", syscall.ECONNREFUSED, true),
		Entry("timeout text", errors.New("net/http: TLS handshake timeout"), true),
		Entry("unexpected eof text", errors.New("unexpected EOF"), true),
		Entry("deadline", context.DeadlineExceeded, true),
		Entry("plain failure", errors.New("invalid query"), false),
	)
})
