package analytics

import (
	"net/http"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
)

var PathAnalytics = "/v1/analytics"

func RegisterAnalyticsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathAnalytics, middleWares...)
	g.GET(ChartSummary, func(c *gin.Context) {
		respond(c, SummaryChartFunc)
	})
	g.GET(ChartTopProducts, func(c *gin.Context) {
		respond(c, TopProductsChartFunc)
	})
	g.GET(ChartTopCustomers, func(c *gin.Context) {
		respond(c, TopCustomersChartFunc)
	})
	g.GET(ChartSalesTrend, func(c *gin.Context) {
		respond(c, SalesTrendChartFunc)
	})
}

func respond[T any](c *gin.Context, chart func(s *session.Session) (*Chart[T], error)) {
	result, err := chart(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, result)
}
