package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mira.app/federation/internal/http/handler"
	"mira.app/federation/internal/http/middleware"
	"mira.app/federation/internal/model"
)

var _ = Describe("EvaluateHandler", func() {
	var (
		router *gin.Engine
		svc    *mockEvaluationService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(middleware.Recovery())
		svc = &mockEvaluationService{}
		h := handler.NewEvaluateHandler(svc)
		router.POST("/federation/evaluate", middleware.RequireJSON(), h.Evaluate)
		router.GET("/federation/reports", h.ListReports)
	})

	Describe("Evaluate", func() {
		It("returns the scorer result for {responses:[...]}", func() {
			svc.evaluateFn = func(_ context.Context, raw []any) model.ResonanceResult {
				return model.ResonanceResult{
					ResonanceIndex: 0.8,
					Metrics:        model.Metrics{Count: len(raw)},
					Policy:         model.Policy{Status: model.PolicyOK, Action: "auto_merge_allowed"},
				}
			}

			w := doJSON(router, http.MethodPost, "/federation/evaluate", `{"responses":[{"answer":"a"},{"answer":"b"}]}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decodeBody(w)
			Expect(resp["resonance_index"]).To(Equal(0.8))
			Expect(resp["policy"]).To(HaveKeyWithValue("status", "ok"))
			Expect(svc.lastRaw).To(HaveLen(2))
		})

		It("accepts a bare array", func() {
			w := doJSON(router, http.MethodPost, "/federation/evaluate", `[{"answer":"a"}]`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.lastRaw).To(HaveLen(1))
		})

		It("keeps numbers as json.Number for the normalizer", func() {
			doJSON(router, http.MethodPost, "/federation/evaluate", `[{"answer":"a","confidence":0.7}]`)
			rec := svc.lastRaw[0].(map[string]any)
			Expect(rec["confidence"]).To(Equal(json.Number("0.7")))
		})

		It("treats a body without responses as an empty batch", func() {
			w := doJSON(router, http.MethodPost, "/federation/evaluate", `{"responses":"nope"}`)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.lastRaw).To(BeEmpty())
		})

		It("returns 400 invalid_json for malformed bodies", func() {
			w := doJSON(router, http.MethodPost, "/federation/evaluate", `{"responses":[`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeBody(w)["error"]).To(Equal("invalid_json"))
		})

		It("returns 415 for non-JSON content types", func() {
			req := httptest.NewRequest(http.MethodPost, "/federation/evaluate", bytes.NewBufferString(`[]`))
			req.Header.Set("Content-Type", "text/plain")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnsupportedMediaType))
			resp := decodeBody(w)
			Expect(resp["error"]).To(Equal("unsupported_media_type"))
			Expect(resp["must"]).To(Equal("application/json"))
		})

		It("accepts a charset parameter", func() {
			req := httptest.NewRequest(http.MethodPost, "/federation/evaluate", bytes.NewBufferString(`[]`))
			req.Header.Set("Content-Type", "application/json; charset=utf-8")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("returns 500 internal_error when scoring panics", func() {
			svc.evaluateFn = func(context.Context, []any) model.ResonanceResult {
				panic("scorer exploded")
			}
			w := doJSON(router, http.MethodPost, "/federation/evaluate", `[]`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			resp := decodeBody(w)
			Expect(resp["error"]).To(Equal("internal_error"))
			Expect(resp["message"]).To(Equal("scorer exploded"))
		})
	})

	Describe("ListReports", func() {
		It("passes the limit through", func() {
			svc.listReportsFn = func(context.Context, int) ([]model.ReportRef, error) {
				return []model.ReportRef{{Key: "federation/reports/a.json", TS: "20250101-000000"}}, nil
			}
			w := doJSON(router, http.MethodGet, "/federation/reports?limit=5", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(svc.lastLimit).To(Equal(5))
			Expect(decodeBody(w)["count"]).To(Equal(float64(1)))
		})

		It("rejects a bad limit", func() {
			w := doJSON(router, http.MethodGet, "/federation/reports?limit=-1", "")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when listing fails", func() {
			svc.listReportsFn = func(context.Context, int) ([]model.ReportRef, error) {
				return nil, errors.New("store down")
			}
			w := doJSON(router, http.MethodGet, "/federation/reports", "")
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
