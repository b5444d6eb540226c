package dataadmin

import (
	"net/http"
	"stocktrack/bizerror"
	"stocktrack/misc"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
)

var PathDataAdmin = "/v1/data-admin"

func RegisterDataAdminRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathDataAdmin, middleWares...)
	g.GET("products", handleQueryProducts)
	g.GET("products/:code/prices", handleQueryPrices)
	g.PUT("products/:code/deletion", handleProductTransition(func(code string, s *session.Session) (interface{}, error) {
		return SoftDeleteProductFunc(code, s)
	}))
	g.PUT("products/:code/restoration", handleProductTransition(func(code string, s *session.Session) (interface{}, error) {
		return RestoreProductFunc(code, s)
	}))
	g.PUT("products/:code/prices/:effdate/deletion", handlePriceTransition(func(code string, d misc.Date, s *session.Session) (interface{}, error) {
		return SoftDeletePriceFunc(code, d, s)
	}))
	g.PUT("products/:code/prices/:effdate/restoration", handlePriceTransition(func(code string, d misc.Date, s *session.Session) (interface{}, error) {
		return RestorePriceFunc(code, d, s)
	}))
}

func handleQueryProducts(c *gin.Context) {
	products, err := QueryProductsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, products)
}

func handleQueryPrices(c *gin.Context) {
	prices, err := QueryPricesFunc(bindCode(c), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, prices)
}

func handleProductTransition(transit func(code string, s *session.Session) (interface{}, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := transit(bindCode(c), session.ExtractSessionFromGinContext(c))
		if err != nil {
			panic(err)
		}
		c.JSON(http.StatusOK, result)
	}
}

func handlePriceTransition(transit func(code string, effDate misc.Date, s *session.Session) (interface{}, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := bindCode(c)
		raw, err := misc.BindingPathParam(c, "effdate")
		if err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		effDate, err := misc.ParseDate(raw)
		if err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
		result, err := transit(code, effDate, session.ExtractSessionFromGinContext(c))
		if err != nil {
			panic(err)
		}
		c.JSON(http.StatusOK, result)
	}
}

func bindCode(c *gin.Context) string {
	code, err := misc.BindingPathParam(c, "code")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	return code
}
