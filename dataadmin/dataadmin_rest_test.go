package dataadmin_test

import (
	"net/http"
	"net/http/httptest"
	"stocktrack/bizerror"
	"stocktrack/catalog"
	"stocktrack/dataadmin"
	"stocktrack/domain/state"
	"stocktrack/misc"
	"stocktrack/session"
	"stocktrack/testinfra"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("DataAdminRestAPI", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		dataadmin.RegisterDataAdminRestAPI(router)
	})
	AfterEach(func() {
		dataadmin.QueryProductsFunc = dataadmin.QueryProducts
		dataadmin.QueryPricesFunc = dataadmin.QueryPrices
		dataadmin.SoftDeleteProductFunc = dataadmin.SoftDeleteProduct
		dataadmin.RestoreProductFunc = dataadmin.RestoreProduct
		dataadmin.SoftDeletePriceFunc = dataadmin.SoftDeletePrice
		dataadmin.RestorePriceFunc = dataadmin.RestorePrice
	})

	Describe("handleQueryProducts", func() {
		It("should list products with status", func() {
			dataadmin.QueryProductsFunc = func(s *session.Session) ([]catalog.Product, error) {
				return []catalog.Product{{ProdCode: "LT0007", Description: "Dell", Unit: "pc", Status: state.StatusDeleted}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/data-admin/products", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"prodcode":"LT0007","description":"Dell","unit":"pc","status":"deleted"}]`))
		})

		It("should return 403 for non admin", func() {
			dataadmin.QueryProductsFunc = func(s *session.Session) ([]catalog.Product, error) {
				return nil, bizerror.ErrForbidden
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/data-admin/products", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusForbidden))
			Expect(body).To(ContainSubstring(`"code":"security.forbidden"`))
		})
	})

	Describe("handleQueryPrices", func() {
		It("should pass product code", func() {
			var code string
			dataadmin.QueryPricesFunc = func(c string, s *session.Session) ([]catalog.PriceEntry, error) {
				code = c
				return []catalog.PriceEntry{{ProdCode: c, EffDate: misc.DateOf(2023, time.June, 1), UnitPrice: 12, Status: state.StatusAdded}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/data-admin/products/LT0007/prices", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(code).To(Equal("LT0007"))
			Expect(body).To(MatchJSON(`[{"prodcode":"LT0007","effdate":"2023-06-01","unitprice":12,"status":"added"}]`))
		})
	})

	Describe("product transitions", func() {
		It("should soft delete product", func() {
			var code string
			dataadmin.SoftDeleteProductFunc = func(c string, s *session.Session) (*catalog.Product, error) {
				code = c
				return &catalog.Product{ProdCode: c, Description: "Dell", Unit: "pc", Status: state.StatusDeleted}, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/data-admin/products/LT0007/deletion", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(code).To(Equal("LT0007"))
			Expect(body).To(MatchJSON(`{"prodcode":"LT0007","description":"Dell","unit":"pc","status":"deleted"}`))
		})

		It("should return 409 on illegal transition", func() {
			dataadmin.RestoreProductFunc = func(c string, s *session.Session) (*catalog.Product, error) {
				return nil, state.ErrIllegalTransition
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/data-admin/products/LT0007/restoration", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusConflict))
			Expect(body).To(ContainSubstring(`"code":"dataadmin.illegal_status_transition"`))
		})
	})

	Describe("price transitions", func() {
		It("should parse effective date", func() {
			var code string
			var effDate misc.Date
			dataadmin.RestorePriceFunc = func(c string, d misc.Date, s *session.Session) (*catalog.PriceEntry, error) {
				code, effDate = c, d
				return &catalog.PriceEntry{ProdCode: c, EffDate: d, UnitPrice: 12, Status: state.StatusRestored}, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/data-admin/products/LT0007/prices/2023-06-01/restoration", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(code).To(Equal("LT0007"))
			Expect(effDate).To(Equal(misc.DateOf(2023, time.June, 1)))
			Expect(body).To(MatchJSON(`{"prodcode":"LT0007","effdate":"2023-06-01","unitprice":12,"status":"restored"}`))
		})

		It("should return 400 on bad date", func() {
			called := false
			dataadmin.SoftDeletePriceFunc = func(c string, d misc.Date, s *session.Session) (*catalog.PriceEntry, error) {
				called = true
				return nil, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/data-admin/products/LT0007/prices/june/deletion", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
			Expect(called).To(BeFalse())
		})
	})
})
