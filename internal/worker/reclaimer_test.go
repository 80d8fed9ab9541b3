package worker

import (
	"context"
	"errors"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"mira.app/federation/internal/queue"
)

var _ = Describe("RedisReclaimer", func() {
	var (
		mr        *miniredis.Miniredis
		client    *redis.Client
		consumer  *queue.RedisConsumer
		processed []queue.Message
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.NewMiniRedis()
		Expect(mr.Start()).To(Succeed())
		DeferCleanup(mr.Close)

		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)

		var err error
		consumer, err = queue.NewRedisConsumer(ctx, client, queue.ConsumerConfig{
			Stream:    "tasks",
			Group:     "group",
			Consumer:  "crashed",
			BatchSize: 10,
			Block:     -1,
		})
		Expect(err).NotTo(HaveOccurred())
		processed = nil
	})

	It("claims, processes and acks messages left pending by another consumer", func() {
		producer := queue.NewRedisProducer(client, "tasks", nil)
		Expect(producer.EnqueueRebuild(ctx, queue.RebuildRequest{Reason: "proposal_saved"})).To(Succeed())

		msgs, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(1))

		reclaimer := NewRedisReclaimer(client, RedisReclaimerConfig{
			Stream:   "tasks",
			Group:    "group",
			Consumer: "rescuer",
			Interval: time.Minute,
		}, consumer, func(_ context.Context, msg queue.Message) error {
			processed = append(processed, msg)
			return nil
		})

		Expect(reclaimer.ReclaimOnce(ctx)).To(Succeed())
		Expect(processed).To(HaveLen(1))
		Expect(processed[0].Reason).To(Equal("proposal_saved"))

		pending, err := client.XPending(ctx, "tasks", "group").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending.Count).To(BeZero())
	})

	It("coalesces several stale rebuild tasks into one rebuild", func() {
		producer := queue.NewRedisProducer(client, "tasks", nil)
		for _, key := range []string{"k1", "k2", "k3"} {
			Expect(producer.EnqueueRebuild(ctx, queue.RebuildRequest{Reason: "proposal_saved", ProposalKey: key})).To(Succeed())
		}
		msgs, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(msgs).To(HaveLen(3))

		reclaimer := NewRedisReclaimer(client, RedisReclaimerConfig{
			Stream: "tasks", Group: "group", Consumer: "rescuer", Interval: time.Minute,
		}, consumer, func(_ context.Context, msg queue.Message) error {
			processed = append(processed, msg)
			return nil
		})

		Expect(reclaimer.ReclaimOnce(ctx)).To(Succeed())
		Expect(processed).To(HaveLen(1))
		Expect(processed[0].ProposalKey).To(Equal("k3"))

		pending, err := client.XPending(ctx, "tasks", "group").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending.Count).To(BeZero())
	})

	It("leaves rebuild tasks pending when the rebuild fails", func() {
		producer := queue.NewRedisProducer(client, "tasks", nil)
		Expect(producer.EnqueueRebuild(ctx, queue.RebuildRequest{Reason: "proposal_saved"})).To(Succeed())
		_, err := consumer.Read(ctx)
		Expect(err).NotTo(HaveOccurred())

		reclaimer := NewRedisReclaimer(client, RedisReclaimerConfig{
			Stream: "tasks", Group: "group", Consumer: "rescuer", Interval: time.Minute,
		}, consumer, func(context.Context, queue.Message) error {
			return errors.New("store down")
		})

		Expect(reclaimer.ReclaimOnce(ctx)).To(MatchError(ContainSubstring("store down")))

		pending, err := client.XPending(ctx, "tasks", "group").Result()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending.Count).To(Equal(int64(1)))
	})

	It("does nothing without pending messages", func() {
		reclaimer := NewRedisReclaimer(client, RedisReclaimerConfig{
			Stream: "tasks", Group: "group", Consumer: "rescuer", Interval: time.Minute,
		}, consumer, func(context.Context, queue.Message) error {
			Fail("processor should not run")
			return nil
		})
		Expect(reclaimer.ReclaimOnce(ctx)).To(Succeed())
	})
})
