package authority_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"stocktrack/authority"
	"stocktrack/bizerror"
	"stocktrack/session"
	"stocktrack/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("PermissionsRestAPI", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		authority.RegisterPermissionsRestAPI(router)
	})
	AfterEach(func() {
		authority.QueryTablePermissionsFunc = authority.QueryTablePermissions
		authority.QueryActionPermissionsFunc = authority.QueryActionPermissions
		authority.SetTablePermissionFunc = authority.SetTablePermission
		authority.SetActionPermissionFunc = authority.SetActionPermission
		authority.EffectivePermissionsFunc = authority.EffectivePermissions
	})

	Describe("handleQueryTablePermissions", func() {
		It("should return records of the user", func() {
			var uid types.ID
			authority.QueryTablePermissionsFunc = func(id types.ID, s *session.Session) ([]authority.TablePermission, error) {
				uid = id
				return []authority.TablePermission{{ID: 1, UserID: id, Table: authority.TableProduct, Permission: authority.LevelRead}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/users/100/table-permissions", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(uid).To(Equal(types.ID(100)))
			Expect(body).To(ContainSubstring(`"tableName":"product"`))
			Expect(body).To(ContainSubstring(`"permission":"read"`))
		})

		It("should return 400 when id is invalid", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/users/abc/table-permissions", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
		})
	})

	Describe("handleSetTablePermission", func() {
		It("should pass parsed level to service", func() {
			var table string
			var level authority.Level
			authority.SetTablePermissionFunc = func(uid types.ID, t string, l authority.Level, s *session.Session) (*authority.TablePermission, error) {
				table, level = t, l
				return &authority.TablePermission{ID: 2, UserID: uid, Table: t, Permission: l}, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/users/100/table-permissions",
				bytes.NewReader([]byte(`{"tableName":"pricehist","permission":"WRITE"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(table).To(Equal("pricehist"))
			Expect(level).To(Equal(authority.LevelWrite))
			Expect(body).To(ContainSubstring(`"permission":"write"`))
		})

		It("should return 400 on invalid level", func() {
			called := false
			authority.SetTablePermissionFunc = func(uid types.ID, t string, l authority.Level, s *session.Session) (*authority.TablePermission, error) {
				called = true
				return nil, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/users/100/table-permissions",
				bytes.NewReader([]byte(`{"tableName":"pricehist","permission":"owner"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"common.bad_param",
				"message":"invalid permission \"owner\", must be one of read, write, none","data":null}`))
			Expect(called).To(BeFalse())
		})

		It("should return 403 when service forbids", func() {
			authority.SetTablePermissionFunc = func(uid types.ID, t string, l authority.Level, s *session.Session) (*authority.TablePermission, error) {
				return nil, bizerror.ErrForbidden
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/users/100/table-permissions",
				bytes.NewReader([]byte(`{"tableName":"product","permission":"read"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusForbidden))
			Expect(body).To(MatchJSON(`{"code":"security.forbidden","message":"access forbidden","data":null}`))
		})
	})

	Describe("handleSetActionPermission", func() {
		It("should accept false as a value", func() {
			var enabled *bool
			authority.SetActionPermissionFunc = func(id types.ID, e bool, s *session.Session) (*authority.ActionPermission, error) {
				enabled = &e
				return &authority.ActionPermission{ID: id, PermissionName: authority.ActionAddProduct, Enabled: e}, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/action-permissions/9", bytes.NewReader([]byte(`{"enabled":false}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(*enabled).To(BeFalse())
			Expect(body).To(ContainSubstring(`"enabled":false`))
		})

		It("should return 400 when enabled is missing", func() {
			req := httptest.NewRequest(http.MethodPut, "/v1/action-permissions/9", bytes.NewReader([]byte(`{}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleSessionPermissions", func() {
		It("should return the resolved matrix", func() {
			authority.EffectivePermissionsFunc = func(s *session.Session) (*authority.PermissionMatrix, error) {
				return &authority.PermissionMatrix{Role: "user",
					Tables:  map[string]authority.Level{authority.TableProduct: authority.LevelRead},
					Actions: map[string]bool{authority.ActionAddProduct: false}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, authority.PathSessionPermissions, nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`{"role":"user","tables":{"product":"read"},"actions":{"can_add_product":false}}`))
		})

		It("should return 401 without session", func() {
			req := httptest.NewRequest(http.MethodGet, authority.PathSessionPermissions, nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusUnauthorized))
		})
	})
})
