package analytics

import (
	"context"
	"errors"
	"stocktrack/authority"
	"stocktrack/infra/metrics"
	"stocktrack/session"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"
)

const (
	ChartSummary      = "summary"
	ChartTopProducts  = "top-products"
	ChartTopCustomers = "top-customers"
	ChartSalesTrend   = "sales-trend"

	defaultCacheSize = 64
)

var (
	SummaryChartFunc      = SummaryChart
	TopProductsChartFunc  = TopProductsChart
	TopCustomersChartFunc = TopCustomersChart
	SalesTrendChartFunc   = SalesTrendChart

	cacheLock sync.RWMutex
	cache     *expirable.LRU[string, interface{}]
)

// ConfigureCache enables the read-through chart cache, a ttl of 0 disables it.
func ConfigureCache(ttl time.Duration, size int) {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	if ttl <= 0 {
		cache = nil
		return
	}
	if size <= 0 {
		size = defaultCacheSize
	}
	cache = expirable.NewLRU[string, interface{}](size, nil, ttl)
}

func SummaryChart(s *session.Session) (*Chart[Summary], error) {
	return serve(s, ChartSummary, func(ctx context.Context) (Summary, error) {
		summary, err := loadSummaryFunc(ctx)
		if err != nil {
			return Summary{}, err
		}
		return *summary, nil
	}, func(v Summary) bool { return v.Products == 0 && v.Customers == 0 && v.Sales == 0 }, sampleSummary)
}

func TopProductsChart(s *session.Session) (*Chart[[]ProductQuantity], error) {
	return serve(s, ChartTopProducts, func(ctx context.Context) ([]ProductQuantity, error) {
		ds, err := loadTopProductsFunc(ctx)
		if err != nil {
			return nil, err
		}
		return TopProducts(ds)
	}, func(v []ProductQuantity) bool { return len(v) == 0 }, sampleTopProducts)
}

func TopCustomersChart(s *session.Session) (*Chart[[]CustomerRevenue], error) {
	return serve(s, ChartTopCustomers, func(ctx context.Context) ([]CustomerRevenue, error) {
		ds, err := loadTopCustomersFunc(ctx)
		if err != nil {
			return nil, err
		}
		return TopCustomers(ds)
	}, func(v []CustomerRevenue) bool { return len(v) == 0 }, sampleTopCustomers)
}

func SalesTrendChart(s *session.Session) (*Chart[[]MonthlySales], error) {
	return serve(s, ChartSalesTrend, func(ctx context.Context) ([]MonthlySales, error) {
		ds, err := loadSalesTrendFunc(ctx)
		if err != nil {
			return nil, err
		}
		return SalesTrend(ds)
	}, func(v []MonthlySales) bool { return len(v) == 0 }, sampleSalesTrend)
}

// serve checks sales read, then answers from the cache or loads the chart. Failed or empty
// loads are answered with the sample data, which is never cached.
func serve[T any](s *session.Session, chart string, load func(ctx context.Context) (T, error),
	empty func(T) bool, sample func() T) (*Chart[T], error) {
	if err := authority.RequireTablePermission(s, authority.TableSales, authority.LevelRead); err != nil {
		return nil, err
	}

	key := cacheKey(chart)
	if v, found := cacheGet(key); found {
		if data, ok := v.(T); ok {
			return &Chart[T]{Data: data}, nil
		}
	}

	data, err := load(s.Ctx())
	if err == nil && !empty(data) {
		cacheAdd(key, data)
		return &Chart[T]{Data: data}, nil
	}

	reason := "empty"
	if err != nil {
		reason = "error"
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			reason = "decode"
		}
		logrus.WithField("chart", chart).Warnf("analytics fallback to sample data: %v", err)
	} else {
		logrus.WithField("chart", chart).Info("analytics fallback to sample data: empty result")
	}
	metrics.AnalyticsFallbacks.WithLabelValues(chart, reason).Inc()
	return &Chart[T]{Data: sample(), Sample: true}, nil
}

func cacheKey(chart string) string {
	return chart + "?limit=" + strconv.Itoa(SampleLimit)
}

func cacheGet(key string) (interface{}, bool) {
	cacheLock.RLock()
	c := cache
	cacheLock.RUnlock()
	if c == nil {
		return nil, false
	}
	v, found := c.Get(key)
	if found {
		metrics.AnalyticsCacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.AnalyticsCacheLookups.WithLabelValues("miss").Inc()
	}
	return v, found
}

func cacheAdd(key string, v interface{}) {
	cacheLock.RLock()
	c := cache
	cacheLock.RUnlock()
	if c != nil {
		c.Add(key, v)
	}
}
