package indices

import (
	"net/http"
	"stocktrack/session"

	"github.com/gin-gonic/gin"
)

// PathIndexRequests accepts full sync requests, GET latest reports the run state.
var PathIndexRequests = "/v1/index-requests"

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexRequests, middleWares...)
	g.POST("", handleIndexRequest)
	g.GET("latest", handleQuerySyncStatus)
}

func handleIndexRequest(c *gin.Context) {
	success, err := ScheduleNewSyncRunFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": success})
}

func handleQuerySyncStatus(c *gin.Context) {
	current, err := QuerySyncStatusFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, current)
}
