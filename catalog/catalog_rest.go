package catalog

import (
	"net/http"
	"stocktrack/bizerror"
	"stocktrack/infra/throttle"
	"stocktrack/misc"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var PathProducts = "/v1/products"

// RegisterProductsRestAPI mounts the product routes. Searches are throttled per session when
// searchLimiter is not nil.
func RegisterProductsRestAPI(r *gin.Engine, searchLimiter *throttle.Limiter, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathProducts, middleWares...)
	g.GET("", handleQueryProducts)
	g.POST("", handleCreateProduct)
	if searchLimiter != nil {
		g.GET("search", throttle.PerSession(searchLimiter), handleSearchProducts)
	} else {
		g.GET("search", handleSearchProducts)
	}
	g.GET(":code", handleDetailProduct)
	g.PUT(":code", handleUpdateProduct)
	g.DELETE(":code", handleDeleteProduct)

	g.GET(":code/prices", handleQueryPriceHistory)
	g.POST(":code/prices", handleAddPrice)
	g.PUT(":code/prices/:effdate", handleUpdatePrice)
	g.DELETE(":code/prices/:effdate", handleDeletePrice)
}

func handleQueryProducts(c *gin.Context) {
	q := ProductQuery{}
	if err := c.ShouldBindQuery(&q); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	list, total, err := QueryProductsFunc(&q, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: list, Total: total})
}

func handleCreateProduct(c *gin.Context) {
	creation := ProductCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	detail, err := CreateProductFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, detail)
}

func handleSearchProducts(c *gin.Context) {
	views, err := SearchProductsFunc(c.Query("term"), session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, views)
}

func handleDetailProduct(c *gin.Context) {
	code := bindCode(c)
	detail, err := DetailProductFunc(code, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, detail)
}

func handleUpdateProduct(c *gin.Context) {
	code := bindCode(c)
	updating := ProductUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	p, err := UpdateProductFunc(code, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, p)
}

func handleDeleteProduct(c *gin.Context) {
	code := bindCode(c)
	if err := DeleteProductFunc(code, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleQueryPriceHistory(c *gin.Context) {
	code := bindCode(c)
	prices, err := QueryPriceHistoryFunc(code, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, prices)
}

func handleAddPrice(c *gin.Context) {
	code := bindCode(c)
	creation := PriceCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	entry, err := AddPriceFunc(code, &creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, entry)
}

func handleUpdatePrice(c *gin.Context) {
	code, effDate := bindCode(c), bindEffDate(c)
	updating := PriceUpdating{}
	if err := c.ShouldBindBodyWith(&updating, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	entry, err := UpdatePriceFunc(code, effDate, &updating, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, entry)
}

func handleDeletePrice(c *gin.Context) {
	code, effDate := bindCode(c), bindEffDate(c)
	if err := DeletePriceFunc(code, effDate, session.ExtractSessionFromGinContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func bindCode(c *gin.Context) string {
	code, err := misc.BindingPathParam(c, "code")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	return code
}

func bindEffDate(c *gin.Context) misc.Date {
	raw, err := misc.BindingPathParam(c, "effdate")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	d, err := misc.ParseDate(raw)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	return d
}
