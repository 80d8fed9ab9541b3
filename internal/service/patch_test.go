package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mira.app/federation/internal/mirror"
	"mira.app/federation/internal/model"
	"mira.app/federation/internal/queue"
	"mira.app/federation/internal/service"
	"mira.app/federation/internal/store"
)

func rawProposal(doc string) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	Expect(json.Unmarshal([]byte(doc), &m)).To(Succeed())
	return m
}

const validProposal = `{
	"type": "patch_proposal",
	"target_file": "src/worker.js",
	"issues": [{"id": "missing_auth_check", "severity": "high", "hint": "h"}],
	"changes": [{"type": "insert_if_absent", "marker": "// M", "content": "// M"}],
	"reviewer_note": "keep me"
}`

var _ = Describe("PatchService", func() {
	var (
		svc      service.PatchService
		kv       *mockKV
		producer *mockProducer
		ctx      context.Context
		now      time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		kv = newMockKV()
		producer = &mockProducer{}
		now = time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
		svc = service.NewPatchServiceAt(kv, producer, func() time.Time { return now })
	})

	Describe("Propose", func() {
		It("rejects empty code", func() {
			_, err := svc.Propose(ctx, "", "worker.js")
			Expect(errors.Is(err, mirror.ErrInvalidInput)).To(BeTrue())
		})

		It("defaults the target", func() {
			p, err := svc.Propose(ctx, "return 1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.TargetFile).To(Equal("worker.js"))
			Expect(p.CreatedAt).To(Equal(now))
			Expect(p.Issues).To(HaveLen(3))
		})
	})

	Describe("Save", func() {
		It("stores the enriched proposal under a timestamped key", func() {
			res, err := svc.Save(ctx, rawProposal(validProposal))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Key).To(Equal("federation/patches/20250607-080910-src/worker.js.json"))

			body, err := kv.Get(ctx, res.Key)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Bytes).To(Equal(len(body)))

			var stored map[string]any
			Expect(json.Unmarshal(body, &stored)).To(Succeed())
			Expect(stored["storage_key"]).To(Equal(res.Key))
			Expect(stored["version"]).To(Equal(model.ProposalVersion))
			Expect(stored["saved_at"]).To(Equal("2025-06-07T08:09:10Z"))
			Expect(stored["reviewer_note"]).To(Equal("keep me"))
		})

		It("tags the key with listing metadata", func() {
			res, err := svc.Save(ctx, rawProposal(validProposal))
			Expect(err).NotTo(HaveOccurred())

			page, err := kv.List(ctx, store.ListOptions{Prefix: service.PatchesPrefix})
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Keys).To(HaveLen(1))
			Expect(page.Keys[0].Metadata.Type).To(Equal(model.ProposalType))
			Expect(page.Keys[0].Metadata.Target).To(Equal("src/worker.js"))
			Expect(*page.Keys[0].Metadata.Size).To(Equal(int64(res.Bytes)))
		})

		It("adds a suffix when two saves land in the same second", func() {
			first, err := svc.Save(ctx, rawProposal(validProposal))
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Save(ctx, rawProposal(validProposal))
			Expect(err).NotTo(HaveOccurred())

			Expect(second.Key).NotTo(Equal(first.Key))
			Expect(second.Key).To(Equal("federation/patches/20250607-080910.1-src/worker.js.json"))
		})

		It("sanitizes the target file in the key", func() {
			res, err := svc.Save(ctx, rawProposal(`{"type":"patch_proposal","target_file":"/my file?.js","changes":[{}]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Key).To(Equal("federation/patches/20250607-080910-my_file_.js.json"))
		})

		It("enqueues a queue rebuild", func() {
			res, err := svc.Save(ctx, rawProposal(validProposal))
			Expect(err).NotTo(HaveOccurred())
			Expect(producer.requests).To(HaveLen(1))
			Expect(producer.requests[0].ProposalKey).To(Equal(res.Key))
		})

		It("still succeeds when the rebuild cannot be enqueued", func() {
			producer.enqueueFn = func(context.Context, queue.RebuildRequest) error { return errors.New("redis down") }
			_, err := svc.Save(ctx, rawProposal(validProposal))
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns store failures", func() {
			kv.putIfAbsentFn = func(context.Context, string, []byte, store.Metadata) error {
				return errors.New("disk full")
			}
			_, err := svc.Save(ctx, rawProposal(validProposal))
			Expect(err).To(MatchError(ContainSubstring("disk full")))
		})

		DescribeTable("validation",
			func(doc string, want error) {
				_, err := svc.Save(ctx, rawProposal(doc))
				Expect(err).To(MatchError(want))
				Expect(kv.putCalls).To(Equal(0))
			},
			Entry("missing type", `{"target_file":"a.js","changes":[{}]}`, service.ErrInvalidProposal),
			Entry("wrong type", `{"type":"patch","target_file":"a.js","changes":[{}]}`, service.ErrInvalidProposal),
			Entry("type not a string", `{"type":1,"target_file":"a.js","changes":[{}]}`, service.ErrInvalidProposal),
			Entry("missing target", `{"type":"patch_proposal","changes":[{}]}`, service.ErrInvalidTargetFile),
			Entry("blank target", `{"type":"patch_proposal","target_file":"  ","changes":[{}]}`, service.ErrInvalidTargetFile),
			Entry("target not a string", `{"type":"patch_proposal","target_file":7,"changes":[{}]}`, service.ErrInvalidTargetFile),
			Entry("target only unsafe chars", `{"type":"patch_proposal","target_file":"///","changes":[{}]}`, service.ErrInvalidTargetFile),
			Entry("missing changes", `{"type":"patch_proposal","target_file":"a.js"}`, service.ErrEmptyChanges),
			Entry("empty changes", `{"type":"patch_proposal","target_file":"a.js","changes":[]}`, service.ErrEmptyChanges),
			Entry("changes not an array", `{"type":"patch_proposal","target_file":"a.js","changes":"x"}`, service.ErrEmptyChanges),
		)
	})
})
