package handler_test

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"mira.app/federation/internal/http/handler"
	"mira.app/federation/internal/mirror"
	"mira.app/federation/internal/model"
)

var _ = Describe("MirrorHandler", func() {
	var (
		router *gin.Engine
		svc    *mockPatchService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockPatchService{}
		h := handler.NewMirrorHandler(svc)
		router.POST("/mirror/propose", h.Propose)
		router.GET("/mirror/schema", h.Schema)
	})

	Describe("Propose", func() {
		It("returns the proposal", func() {
			var gotCode, gotTarget string
			svc.proposeFn = func(_ context.Context, code, target string) (*model.PatchProposal, error) {
				gotCode, gotTarget = code, target
				return &model.PatchProposal{Type: model.ProposalType, TargetFile: "api.js", Priority: 0.5}, nil
			}

			w := doJSON(router, http.MethodPost, "/mirror/propose", `{"code":"x()","target_path":"api.js"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotCode).To(Equal("x()"))
			Expect(gotTarget).To(Equal("api.js"))
			Expect(decodeBody(w)["target_file"]).To(Equal("api.js"))
		})

		It("ignores a non-string target_path", func() {
			var gotTarget string
			svc.proposeFn = func(_ context.Context, _, target string) (*model.PatchProposal, error) {
				gotTarget = target
				return &model.PatchProposal{}, nil
			}
			doJSON(router, http.MethodPost, "/mirror/propose", `{"code":"x()","target_path":42}`)
			Expect(gotTarget).To(BeEmpty())
		})

		DescribeTable("invalid_input",
			func(body string) {
				svc.proposeFn = func(_ context.Context, code, _ string) (*model.PatchProposal, error) {
					if code == "" {
						return nil, mirror.ErrInvalidInput
					}
					return &model.PatchProposal{}, nil
				}
				w := doJSON(router, http.MethodPost, "/mirror/propose", body)
				Expect(w.Code).To(Equal(http.StatusBadRequest))
				resp := decodeBody(w)
				Expect(resp["error"]).To(Equal("invalid_input"))
				Expect(resp["hint"]).NotTo(BeEmpty())
			},
			Entry("missing code", `{}`),
			Entry("empty code", `{"code":""}`),
			Entry("numeric code", `{"code":12}`),
		)

		It("returns 400 invalid_json for malformed bodies", func() {
			w := doJSON(router, http.MethodPost, "/mirror/propose", `{"code":`)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeBody(w)["error"]).To(Equal("invalid_json"))
		})

		It("returns 500 for unexpected failures", func() {
			svc.proposeFn = func(context.Context, string, string) (*model.PatchProposal, error) {
				return nil, errors.New("boom")
			}
			w := doJSON(router, http.MethodPost, "/mirror/propose", `{"code":"x"}`)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decodeBody(w)["message"]).To(Equal("boom"))
		})
	})

	Describe("Schema", func() {
		It("serves a closed JSON schema for proposals", func() {
			w := doJSON(router, http.MethodGet, "/mirror/schema", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			resp := decodeBody(w)
			Expect(resp["additionalProperties"]).To(Equal(false))
			Expect(resp["properties"]).To(HaveKey("target_file"))
			Expect(resp["properties"]).To(HaveKey("changes"))
		})
	})
})
