package account_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"stocktrack/account"
	"stocktrack/bizerror"
	"stocktrack/session"
	"stocktrack/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProfilesRestAPI", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		account.RegisterProfilesRestAPI(router)
	})
	AfterEach(func() {
		account.QueryProfilesFunc = account.QueryProfiles
		account.DetailProfileFunc = account.DetailProfile
		account.UpdateProfileFunc = account.UpdateProfile
		account.SetRoleFunc = account.SetRole
		account.UpdateBasicAuthSecretFunc = account.UpdateBasicAuthSecret
	})

	Describe("handleQueryProfiles", func() {
		It("should return profiles", func() {
			account.QueryProfilesFunc = func(s *session.Session) ([]account.Profile, error) {
				return []account.Profile{{ID: 123, Email: "ann@example.com", FullName: "Ann", Role: account.RoleUser}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, account.PathProfiles, nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			var profiles []map[string]interface{}
			Expect(json.Unmarshal([]byte(body), &profiles)).To(Succeed())
			Expect(len(profiles)).To(Equal(1))
			Expect(profiles[0]["id"]).To(Equal("123"))
			Expect(profiles[0]["email"]).To(Equal("ann@example.com"))
			Expect(profiles[0]["fullName"]).To(Equal("Ann"))
			Expect(profiles[0]["role"]).To(Equal("user"))
			Expect(profiles[0]).To(HaveKey("createdAt"))
		})

		It("should return 403 when forbidden", func() {
			account.QueryProfilesFunc = func(s *session.Session) ([]account.Profile, error) {
				return nil, bizerror.ErrForbidden
			}
			req := httptest.NewRequest(http.MethodGet, account.PathProfiles, nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusForbidden))
			Expect(body).To(MatchJSON(`{"code":"security.forbidden","message":"access forbidden","data":null}`))
		})
	})

	Describe("handleSetRole", func() {
		It("should set role", func() {
			var pathID types.ID
			var newRole account.Role
			account.SetRoleFunc = func(uid types.ID, role account.Role, s *session.Session) (*account.Profile, error) {
				pathID, newRole = uid, role
				return &account.Profile{ID: uid, Role: role}, nil
			}
			req := httptest.NewRequest(http.MethodPut, account.PathProfiles+"/123/role", bytes.NewReader([]byte(`{"role":"Blocked"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(pathID).To(Equal(types.ID(123)))
			Expect(newRole).To(Equal(account.RoleBlocked))
		})

		It("should return 400 when role is invalid", func() {
			invoked := false
			account.SetRoleFunc = func(uid types.ID, role account.Role, s *session.Session) (*account.Profile, error) {
				invoked = true
				return nil, nil
			}
			req := httptest.NewRequest(http.MethodPut, account.PathProfiles+"/123/role", bytes.NewReader([]byte(`{"role":"owner"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"common.bad_param",
				"message":"invalid role \"owner\", must be one of admin, user, blocked","data":null}`))
			Expect(invoked).To(BeFalse())
		})

		It("should return 400 when id is invalid", func() {
			req := httptest.NewRequest(http.MethodPut, account.PathProfiles+"/abc/role", bytes.NewReader([]byte(`{"role":"user"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleUpdateProfile", func() {
		It("should validate and update", func() {
			var payload *account.ProfileUpdating
			account.UpdateProfileFunc = func(uid types.ID, u *account.ProfileUpdating, s *session.Session) (*account.Profile, error) {
				payload = u
				return &account.Profile{ID: uid, FullName: u.FullName}, nil
			}
			req := httptest.NewRequest(http.MethodPut, account.PathProfiles+"/123", bytes.NewReader([]byte(`{}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{"code":"common.bad_param",
				"message":"Key: 'ProfileUpdating.FullName' Error:Field validation for 'FullName' failed on the 'required' tag",
				"data":null}`))
			Expect(payload).To(BeNil())

			req = httptest.NewRequest(http.MethodPut, account.PathProfiles+"/123", bytes.NewReader([]byte(`{"fullName":"Ann"}`)))
			status, _, _ = testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(*payload).To(Equal(account.ProfileUpdating{FullName: "Ann"}))
		})
	})

	Describe("handleDetailProfile", func() {
		It("should return 404 when profile not found", func() {
			account.DetailProfileFunc = func(uid types.ID, s *session.Session) (*account.Profile, error) {
				return nil, bizerror.ErrNotFound
			}
			req := httptest.NewRequest(http.MethodGet, account.PathProfiles+"/123", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(MatchJSON(`{"code":"common.record_not_found","message":"record not found","data":null}`))
		})
	})

	Describe("handleUpdateBasicAuth", func() {
		It("should return 200 when update successful", func() {
			var payload *account.BasicAuthUpdating
			account.UpdateBasicAuthSecretFunc = func(u *account.BasicAuthUpdating, s *session.Session) error {
				payload = u
				return nil
			}
			req := httptest.NewRequest(http.MethodPut, account.PathSessionUsers+account.PathBasicAuthsPart,
				bytes.NewReader([]byte(`{"originalSecret":"123456","newSecret":"654321"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(BeZero())
			Expect(*payload).To(Equal(account.BasicAuthUpdating{OriginalSecret: "123456", NewSecret: "654321"}))
		})

		It("should return 400 when validation failed", func() {
			req := httptest.NewRequest(http.MethodPut, account.PathSessionUsers+account.PathBasicAuthsPart,
				bytes.NewReader([]byte(`{"originalSecret":"123","newSecret":"321"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(MatchJSON(`{
				"code":"common.bad_param",
				"message":"Key: 'BasicAuthUpdating.NewSecret' Error:Field validation for 'NewSecret' failed on the 'gte' tag",
				"data":null}`))
		})
	})
})

var _ = Describe("ActiveProfileFilter", func() {
	var (
		router *gin.Engine
		store  *session.Store
		token  string
	)
	BeforeEach(func() {
		store = session.NewStore(0)
		token = store.SignIn(session.Identity{ID: 7}, "user").Token
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		router.GET("/guarded", session.SimpleAuthFilter(store), account.ActiveProfileFilter(), func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
	})
	AfterEach(func() {
		account.ResolveRoleFunc = account.ResolveRole
		store.Close()
	})

	request := func() (int, string) {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		req.AddCookie(&http.Cookie{Name: session.KeySecToken, Value: token})
		status, body, _ := testinfra.ExecuteRequest(req, router)
		return status, body
	}

	It("should reject blocked users", func() {
		account.ResolveRoleFunc = func(ctx context.Context, uid types.ID) (account.Role, error) {
			return account.RoleBlocked, nil
		}
		status, body := request()
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"security.blocked","message":"account is blocked","data":null}`))
	})

	It("should pass active users", func() {
		account.ResolveRoleFunc = func(ctx context.Context, uid types.ID) (account.Role, error) {
			Expect(uid).To(Equal(types.ID(7)))
			return account.RoleUser, nil
		}
		status, body := request()
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(Equal("ok"))
	})

	It("should not block when role lookup failed", func() {
		account.ResolveRoleFunc = func(ctx context.Context, uid types.ID) (account.Role, error) {
			return "", errors.New("gateway down")
		}
		status, _ := request()
		Expect(status).To(Equal(http.StatusOK))
	})
})
