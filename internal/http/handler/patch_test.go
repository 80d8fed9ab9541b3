package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mira.app/federation/internal/http/handler"
	"mira.app/federation/internal/service"
)

var _ = Describe("PatchHandler", func() {
	var (
		router *gin.Engine
		svc    *mockPatchService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockPatchService{}
		router.POST("/patches", handler.NewPatchHandler(svc).Save)
	})

	It("returns stored with key and bytes", func() {
		svc.saveFn = func(_ context.Context, p map[string]json.RawMessage) (*service.SaveResult, error) {
			Expect(p).To(HaveKey("type"))
			return &service.SaveResult{Key: "federation/patches/20250101-000000-a.js.json", Bytes: 321}, nil
		}

		w := doJSON(router, http.MethodPost, "/patches", `{"type":"patch_proposal","target_file":"a.js","changes":[{}]}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		resp := decodeBody(w)
		Expect(resp["status"]).To(Equal("stored"))
		Expect(resp["key"]).To(Equal("federation/patches/20250101-000000-a.js.json"))
		Expect(resp["bytes"]).To(Equal(float64(321)))
	})

	DescribeTable("maps validation errors",
		func(err error, code string) {
			svc.saveFn = func(context.Context, map[string]json.RawMessage) (*service.SaveResult, error) {
				return nil, err
			}
			w := doJSON(router, http.MethodPost, "/patches", `{}`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			resp := decodeBody(w)
			Expect(resp["error"]).To(Equal(code))
			Expect(resp["hint"]).NotTo(BeEmpty())
		},
		Entry("type", service.ErrInvalidProposal, "invalid_proposal"),
		Entry("target", service.ErrInvalidTargetFile, "invalid_target_file"),
		Entry("changes", service.ErrEmptyChanges, "empty_changes"),
	)

	It("rejects malformed JSON", func() {
		w := doJSON(router, http.MethodPost, "/patches", `{"type":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeBody(w)["error"]).To(Equal("invalid_json"))
	})

	It("rejects non-object bodies as invalid_proposal", func() {
		for _, body := range []string{`[]`, `null`, `"patch_proposal"`} {
			w := doJSON(router, http.MethodPost, "/patches", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest), body)
			Expect(decodeBody(w)["error"]).To(Equal("invalid_proposal"), body)
		}
	})

	It("returns 500 on store failures", func() {
		svc.saveFn = func(context.Context, map[string]json.RawMessage) (*service.SaveResult, error) {
			return nil, errors.New("storing proposal: timeout")
		}
		w := doJSON(router, http.MethodPost, "/patches", `{}`)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(decodeBody(w)["error"]).To(Equal("internal_error"))
	})
})
