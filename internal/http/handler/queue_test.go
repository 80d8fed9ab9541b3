package handler_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mira.app/federation/internal/http/handler"
	"mira.app/federation/internal/model"
)

var _ = Describe("QueueHandler", func() {
	var (
		router *gin.Engine
		svc    *mockQueueService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockQueueService{}
		h := handler.NewQueueHandler(svc)
		router.GET("/queue/patches", h.Rebuild)
		router.GET("/queue/patches/snapshot", h.Snapshot)
	})

	Describe("Rebuild", func() {
		It("reports count and first key", func() {
			svc.rebuildFn = func(context.Context) (*model.QueueSnapshot, error) {
				return &model.QueueSnapshot{Total: 2, Items: []model.QueueItem{{Key: "newest"}, {Key: "older"}}}, nil
			}
			w := doJSON(router, http.MethodGet, "/queue/patches", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decodeBody(w)
			Expect(resp["status"]).To(Equal("queued"))
			Expect(resp["count"]).To(Equal(float64(2)))
			Expect(resp["first"]).To(Equal("newest"))
		})

		It("returns first null for an empty queue", func() {
			w := doJSON(router, http.MethodGet, "/queue/patches", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decodeBody(w)
			Expect(resp["count"]).To(Equal(float64(0)))
			Expect(resp).To(HaveKeyWithValue("first", BeNil()))
		})

		It("returns 500 when the rebuild fails", func() {
			svc.rebuildFn = func(context.Context) (*model.QueueSnapshot, error) {
				return nil, errors.New("listing proposals: timeout")
			}
			w := doJSON(router, http.MethodGet, "/queue/patches", "")
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decodeBody(w)["message"]).To(ContainSubstring("timeout"))
		})
	})

	Describe("Snapshot", func() {
		It("returns 404 before the first rebuild", func() {
			w := doJSON(router, http.MethodGet, "/queue/patches/snapshot", "")
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decodeBody(w)["error"]).To(Equal("not_found"))
		})

		It("returns the stored snapshot", func() {
			svc.snapshotFn = func(context.Context) (*model.QueueSnapshot, error) {
				return &model.QueueSnapshot{UpdatedAt: time.Unix(0, 0).UTC(), Total: 1, Items: []model.QueueItem{{Key: "k", TS: "20250101-000000", Type: model.ProposalType}}}, nil
			}
			w := doJSON(router, http.MethodGet, "/queue/patches/snapshot", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decodeBody(w)
			Expect(resp["total"]).To(Equal(float64(1)))
			Expect(resp["items"]).To(HaveLen(1))
		})
	})
})
