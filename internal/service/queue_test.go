package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mira.app/federation/internal/model"
	"mira.app/federation/internal/service"
	"mira.app/federation/internal/store"
)

var _ = Describe("QueueService", func() {
	var (
		svc service.QueueService
		kv  *mockKV
		ctx context.Context
		now time.Time
	)

	put := func(key, target string) {
		size := int64(10)
		Expect(kv.MemoryKV.Put(ctx, key, []byte("{}"), store.Metadata{Type: model.ProposalType, Target: target, Size: &size})).To(Succeed())
	}

	keysOf := func(snap *model.QueueSnapshot) []string {
		out := make([]string, len(snap.Items))
		for i, it := range snap.Items {
			out[i] = it.Key
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		kv = newMockKV()
		now = time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
		svc = service.NewQueueServiceAt(kv, 2, func() time.Time { return now })
	})

	Describe("Rebuild", func() {
		It("writes an explicit empty snapshot when nothing is stored", func() {
			snap, err := svc.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Total).To(Equal(0))
			Expect(snap.Items).NotTo(BeNil())
			Expect(snap.Items).To(BeEmpty())

			body, err := kv.Get(ctx, service.QueueKey)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring(`"items":[]`))
		})

		It("orders proposals newest first across pages", func() {
			put("federation/patches/20250101-000000-a.js.json", "a.js")
			put("federation/patches/20250301-120000-b.js.json", "b.js")
			put("federation/patches/20250201-000000-c.js.json", "c.js")
			put("federation/patches/legacy-d.js.json", "d.js")
			put("federation/patches/20250301-120000.1-e.js.json", "e.js")

			snap, err := svc.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Total).To(Equal(5))
			Expect(snap.UpdatedAt).To(Equal(now))
			Expect(keysOf(snap)).To(Equal([]string{
				"federation/patches/20250301-120000.1-e.js.json",
				"federation/patches/20250301-120000-b.js.json",
				"federation/patches/20250201-000000-c.js.json",
				"federation/patches/20250101-000000-a.js.json",
				"federation/patches/legacy-d.js.json",
			}))
			Expect(snap.Items[4].TS).To(Equal(service.SentinelTimestamp))
			Expect(snap.Items[0].Target).To(Equal("e.js"))
			Expect(*snap.Items[0].Size).To(Equal(int64(10)))
		})

		It("ignores keys outside the proposals namespace", func() {
			put("federation/patches/20250101-000000-a.js.json", "a.js")
			put("federation/reports/20250101-000000-1.json", "")

			snap, err := svc.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Total).To(Equal(1))
		})

		It("is idempotent without intervening saves", func() {
			put("federation/patches/20250101-000000-a.js.json", "a.js")
			put("federation/patches/20250102-000000-b.js.json", "b.js")

			first, err := svc.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Items).To(Equal(first.Items))
		})

		It("fails when listing fails", func() {
			kv.listFn = func(context.Context, store.ListOptions) (store.Page, error) {
				return store.Page{}, errors.New("timeout")
			}
			_, err := svc.Rebuild(ctx)
			Expect(err).To(MatchError(ContainSubstring("timeout")))
		})

		It("fails when the snapshot cannot be written", func() {
			kv.putFn = func(context.Context, string, []byte, store.Metadata) error {
				return errors.New("read only")
			}
			_, err := svc.Rebuild(ctx)
			Expect(err).To(MatchError(ContainSubstring("read only")))
		})
	})

	Describe("Snapshot", func() {
		It("returns ErrSnapshotNotFound before the first rebuild", func() {
			_, err := svc.Snapshot(ctx)
			Expect(err).To(MatchError(service.ErrSnapshotNotFound))
		})

		It("returns the last rebuilt snapshot", func() {
			put("federation/patches/20250101-000000-a.js.json", "a.js")
			_, err := svc.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())

			snap, err := svc.Snapshot(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Total).To(Equal(1))
			Expect(snap.Items[0].Key).To(Equal("federation/patches/20250101-000000-a.js.json"))
		})

		It("reports corrupt snapshots", func() {
			Expect(kv.MemoryKV.Put(ctx, service.QueueKey, []byte("not json"), store.Metadata{})).To(Succeed())
			_, err := svc.Snapshot(ctx)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, service.ErrSnapshotNotFound)).To(BeFalse())
		})
	})

	It("picks up proposals saved through PatchService", func() {
		patches := service.NewPatchServiceAt(kv, nil, func() time.Time { return now })
		_, err := patches.Save(ctx, rawProposal(validProposal))
		Expect(err).NotTo(HaveOccurred())

		snap, err := svc.Rebuild(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Items).To(HaveLen(1))
		Expect(snap.Items[0].TS).To(Equal("20250607-080910"))
		Expect(snap.Items[0].Target).To(Equal("src/worker.js"))

		var decoded model.QueueSnapshot
		body, _ := kv.Get(ctx, service.QueueKey)
		Expect(json.Unmarshal(body, &decoded)).To(Succeed())
		Expect(decoded.Total).To(Equal(1))
	})
})
