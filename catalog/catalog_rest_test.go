package catalog_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"stocktrack/bizerror"
	"stocktrack/catalog"
	"stocktrack/infra/throttle"
	"stocktrack/misc"
	"stocktrack/session"
	"stocktrack/testinfra"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ProductsRestAPI", func() {
	var (
		router *gin.Engine
	)
	BeforeEach(func() {
		router = gin.Default()
		router.Use(bizerror.ErrorHandling())
		catalog.RegisterProductsRestAPI(router, nil)
	})
	AfterEach(func() {
		catalog.QueryProductsFunc = catalog.QueryProducts
		catalog.CreateProductFunc = catalog.CreateProduct
		catalog.DetailProductFunc = catalog.DetailProduct
		catalog.UpdateProductFunc = catalog.UpdateProduct
		catalog.DeleteProductFunc = catalog.DeleteProduct
		catalog.SearchProductsFunc = catalog.SearchProducts
		catalog.AddPriceFunc = catalog.AddPrice
		catalog.UpdatePriceFunc = catalog.UpdatePrice
		catalog.DeletePriceFunc = catalog.DeletePrice
		catalog.QueryPriceHistoryFunc = catalog.QueryPriceHistory
	})

	Describe("handleQueryProducts", func() {
		It("should return paged body", func() {
			var query *catalog.ProductQuery
			catalog.QueryProductsFunc = func(q *catalog.ProductQuery, s *session.Session) ([]catalog.ProductView, int64, error) {
				query = q
				return []catalog.ProductView{{Product: catalog.Product{ProdCode: "LT0007", Description: "Dell", Unit: "pc"}}}, 21, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/products?page=2&pageSize=10&keyword=de", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(*query).To(Equal(catalog.ProductQuery{Page: 2, PageSize: 10, Keyword: "de"}))
			Expect(body).To(MatchJSON(`{"total":21,"list":[{"prodcode":"LT0007","description":"Dell","unit":"pc","currentPrice":null}]}`))
		})

		It("should return 400 when page size is too large", func() {
			req := httptest.NewRequest(http.MethodGet, "/v1/products?pageSize=1000", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
		})
	})

	Describe("handleCreateProduct", func() {
		It("should return 201 with created product", func() {
			var creation *catalog.ProductCreation
			catalog.CreateProductFunc = func(c *catalog.ProductCreation, s *session.Session) (*catalog.ProductDetail, error) {
				creation = c
				return &catalog.ProductDetail{ProductView: catalog.ProductView{Product: catalog.Product{ProdCode: "AD1234"}}}, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/products", bytes.NewReader([]byte(
				`{"category":"ad","number":"12a345","description":"Adapter","unit":"pc","prices":[{"unitprice":3.5,"effdate":"2023-06-01"}]}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusCreated))
			Expect(body).To(ContainSubstring(`"prodcode":"AD1234"`))
			Expect(creation.Prices).To(Equal([]catalog.PriceCreation{{UnitPrice: 3.5, EffDate: misc.DateOf(2023, time.June, 1)}}))
		})

		It("should return 400 when prices are missing", func() {
			called := false
			catalog.CreateProductFunc = func(c *catalog.ProductCreation, s *session.Session) (*catalog.ProductDetail, error) {
				called = true
				return nil, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/products", bytes.NewReader([]byte(
				`{"category":"ad","number":"1","description":"Adapter","unit":"pc"}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(called).To(BeFalse())
		})

		It("should return 409 when product exists", func() {
			catalog.CreateProductFunc = func(c *catalog.ProductCreation, s *session.Session) (*catalog.ProductDetail, error) {
				return nil, catalog.ErrProductExisted
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/products", bytes.NewReader([]byte(
				`{"category":"ad","number":"1","description":"Adapter","unit":"pc","prices":[]}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusConflict))
			Expect(body).To(ContainSubstring(`"code":"catalog.product_existed"`))
		})
	})

	Describe("handleSearchProducts", func() {
		It("should pass term to service", func() {
			var term string
			catalog.SearchProductsFunc = func(q string, s *session.Session) ([]catalog.ProductView, error) {
				term = q
				return []catalog.ProductView{}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/products/search?term=Dell", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[]`))
			Expect(term).To(Equal("Dell"))
		})

		It("should throttle searches when limiter is set", func() {
			router = gin.Default()
			router.Use(bizerror.ErrorHandling())
			catalog.RegisterProductsRestAPI(router, throttle.NewLimiter(0.001, 1, time.Minute))
			catalog.SearchProductsFunc = func(q string, s *session.Session) ([]catalog.ProductView, error) {
				return []catalog.ProductView{}, nil
			}

			status, _, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/v1/products/search?term=a", nil), router)
			Expect(status).To(Equal(http.StatusOK))
			status, body, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodGet, "/v1/products/search?term=a", nil), router)
			Expect(status).To(Equal(http.StatusTooManyRequests))
			Expect(body).To(ContainSubstring(`"code":"common.too_many_requests"`))
		})
	})

	Describe("product routes", func() {
		It("should return product detail", func() {
			catalog.DetailProductFunc = func(code string, s *session.Session) (*catalog.ProductDetail, error) {
				return nil, bizerror.ErrNotFound
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/products/NONE0001", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNotFound))
			Expect(body).To(ContainSubstring(`"code":"common.record_not_found"`))
		})

		It("should update product", func() {
			var updating *catalog.ProductUpdating
			catalog.UpdateProductFunc = func(code string, u *catalog.ProductUpdating, s *session.Session) (*catalog.Product, error) {
				updating = u
				return &catalog.Product{ProdCode: code, Description: u.Description, Unit: u.Unit}, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/products/LT0007", bytes.NewReader([]byte(`{"description":"D","unit":"box"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(*updating).To(Equal(catalog.ProductUpdating{Description: "D", Unit: "box"}))
			Expect(body).To(MatchJSON(`{"prodcode":"LT0007","description":"D","unit":"box"}`))
		})

		It("should delete product", func() {
			var deleted string
			catalog.DeleteProductFunc = func(code string, s *session.Session) error {
				deleted = code
				return nil
			}
			req := httptest.NewRequest(http.MethodDelete, "/v1/products/LT0007", nil)
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusNoContent))
			Expect(deleted).To(Equal("LT0007"))
		})
	})

	Describe("price routes", func() {
		It("should add price", func() {
			var creation *catalog.PriceCreation
			catalog.AddPriceFunc = func(code string, pc *catalog.PriceCreation, s *session.Session) (*catalog.PriceEntry, error) {
				creation = pc
				return &catalog.PriceEntry{ProdCode: code, EffDate: pc.EffDate, UnitPrice: pc.UnitPrice}, nil
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/products/LT0007/prices", bytes.NewReader([]byte(`{"unitprice":12,"effdate":"2023-06-01"}`)))
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(creation.EffDate).To(Equal(misc.DateOf(2023, time.June, 1)))
			Expect(body).To(MatchJSON(`{"prodcode":"LT0007","effdate":"2023-06-01","unitprice":12}`))
		})

		It("should parse effective date of path", func() {
			var day misc.Date
			catalog.UpdatePriceFunc = func(code string, effDate misc.Date, u *catalog.PriceUpdating, s *session.Session) (*catalog.PriceEntry, error) {
				day = effDate
				return &catalog.PriceEntry{ProdCode: code, EffDate: effDate, UnitPrice: u.UnitPrice}, nil
			}
			req := httptest.NewRequest(http.MethodPut, "/v1/products/LT0007/prices/2023-01-01", bytes.NewReader([]byte(`{"unitprice":9}`)))
			status, _, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(day).To(Equal(misc.DateOf(2023, time.January, 1)))
		})

		It("should return 400 on malformed effective date", func() {
			req := httptest.NewRequest(http.MethodDelete, "/v1/products/LT0007/prices/yesterday", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(body).To(ContainSubstring(`"code":"common.bad_param"`))
		})

		It("should list price history", func() {
			catalog.QueryPriceHistoryFunc = func(code string, s *session.Session) ([]catalog.PriceEntry, error) {
				return []catalog.PriceEntry{{ProdCode: code, EffDate: misc.DateOf(2023, time.June, 1), UnitPrice: 12}}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/products/LT0007/prices", nil)
			status, body, _ := testinfra.ExecuteRequest(req, router)
			Expect(status).To(Equal(http.StatusOK))
			Expect(body).To(MatchJSON(`[{"prodcode":"LT0007","effdate":"2023-06-01","unitprice":12}]`))
		})
	})
})
