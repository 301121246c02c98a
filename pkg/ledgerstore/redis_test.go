package ledgerstore_test

import (
	"context"
	"errors"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lisanmuaddib/resource-pull/pkg/ledgerstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"
)

var _ = Describe("Redis", func() {
	var (
		server *miniredis.Miniredis
		client *redis.Client
		store  *ledgerstore.Redis
		ctx    context.Context
	)

	BeforeEach(func() {
		server = miniredis.RunT(GinkgoT())
		client = redis.NewClient(&redis.Options{Addr: server.Addr()})
		store = ledgerstore.NewRedis(client, "")
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
	})

	It("loads an empty snapshot from a missing key", func() {
		numbers, err := store.LoadMap(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(numbers).To(BeEmpty())
	})

	It("replaces the hash on save", func() {
		seen := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
		Expect(store.SaveMap(ctx, map[string]time.Time{"1111111111": seen})).To(Succeed())
		Expect(store.SaveMap(ctx, map[string]time.Time{
			"9876543210": seen,
			"9876543211": seen.Add(time.Minute),
		})).To(Succeed())

		numbers, err := store.LoadMap(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(numbers).To(HaveLen(2))
		Expect(numbers).NotTo(HaveKey("1111111111"))
		Expect(numbers["9876543211"].Equal(seen.Add(time.Minute))).To(BeTrue())

		Expect(server.HGet(ledgerstore.DefaultRedisKey, "9876543210")).To(Equal("2021-05-01T10:00:00Z"))
	})

	It("rejects unparseable timestamps", func() {
		server.HSet(ledgerstore.DefaultRedisKey, "9876543210", "not-a-time")

		_, err := store.LoadMap(ctx)
		Expect(errors.Is(err, ledgerstore.ErrMalformedSnapshot)).To(BeTrue())
	})

	It("surfaces connection failures", func() {
		server.Close()

		_, err := store.LoadMap(ctx)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, ledgerstore.ErrMalformedSnapshot)).To(BeFalse())
	})
})
