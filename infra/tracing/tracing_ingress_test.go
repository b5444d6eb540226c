package tracing

import (
	"net/http"
	"net/http/httptest"
	"stocktrack/testinfra"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
)

func TestTracingIngress(t *testing.T) {
	RegisterTestingT(t)

	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	router := gin.Default()
	router.Use(TracingIngress())
	router.GET("/v1/products/:code", func(c *gin.Context) {
		if opentracing.SpanFromContext(c.Request.Context()) == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	router.GET("/boom", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	t.Run("new root trace named after route", func(t *testing.T) {
		tracer.Reset()

		req := httptest.NewRequest(http.MethodGet, "/v1/products/LT0007", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(1))
		s := spans[0]
		Expect(s.OperationName).To(Equal("GET /v1/products/:code"))
		Expect(s.ParentID).To(Equal(0))
		Expect(s.Tag("http.method")).To(Equal("GET"))
		Expect(s.Tag("http.url")).To(Equal("/v1/products/LT0007"))
		Expect(s.Tag("http.status_code")).To(Equal(uint16(200)))
		Expect(s.Tag("error")).To(BeNil())
	})

	t.Run("child of the caller trace", func(t *testing.T) {
		tracer.Reset()

		clientSpan := tracer.StartSpan("client")
		req := httptest.NewRequest(http.MethodGet, "/v1/products/LT0007", nil)
		Expect(tracer.Inject(clientSpan.Context(), opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(req.Header))).To(BeNil())
		status, _, _ := testinfra.ExecuteRequest(req, router)
		clientSpan.Finish()
		Expect(status).To(Equal(http.StatusOK))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(2))
		client, server := spans[1], spans[0]
		Expect(client.OperationName).To(Equal("client"))
		Expect(server.ParentID).To(Equal(client.SpanContext.SpanID))
		Expect(server.SpanContext.TraceID).To(Equal(client.SpanContext.TraceID))
	})

	t.Run("server errors flag the span", func(t *testing.T) {
		tracer.Reset()

		req := httptest.NewRequest(http.MethodGet, "/boom", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadGateway))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(1))
		Expect(spans[0].Tag("error")).To(Equal(true))
	})

	t.Run("unmatched route", func(t *testing.T) {
		tracer.Reset()

		req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))

		spans := tracer.FinishedSpans()
		Expect(len(spans)).To(Equal(1))
		Expect(spans[0].OperationName).To(Equal("GET unmatched"))
	})
}
