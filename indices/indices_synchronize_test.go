package indices_test

import (
	"context"
	"errors"
	"stocktrack/account"
	"stocktrack/bizerror"
	"stocktrack/catalog"
	"stocktrack/client/es"
	"stocktrack/event"
	"stocktrack/indices"
	"stocktrack/misc"
	"stocktrack/session"
	"sync"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

type indexCall struct {
	id  string
	doc interface{}
}

func stubIndex() (*[]indexCall, *[]string, func()) {
	mu := sync.Mutex{}
	indexed := []indexCall{}
	deleted := []string{}
	es.IndexFunc = func(ctx context.Context, index string, id string, doc interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		indexed = append(indexed, indexCall{id: id, doc: doc})
		return nil
	}
	es.DeleteDocumentFunc = func(ctx context.Context, index string, id string) error {
		mu.Lock()
		defer mu.Unlock()
		deleted = append(deleted, id)
		return nil
	}
	return &indexed, &deleted, func() {
		es.IndexFunc = es.Index
		es.DeleteDocumentFunc = es.DeleteDocument
		catalog.LoadProductViewsFunc = catalog.LoadProductViews
	}
}

func TestScheduleNewSyncRun(t *testing.T) {
	RegisterTestingT(t)
	defer func() {
		indices.IsAdminFunc = account.IsAdmin
		indices.IndicesFullSyncFunc = indices.IndicesFullSync
	}()

	t.Run("only admin can schedule sync run", func(t *testing.T) {
		indices.IsAdminFunc = func(ctx context.Context, uid types.ID) bool { return false }
		success, err := indices.ScheduleNewSyncRun(&session.Session{Token: "t"})
		Expect(err).To(Equal(bizerror.ErrForbidden))
		Expect(success).To(BeFalse())
	})

	t.Run("only one run at a time", func(t *testing.T) {
		indices.IsAdminFunc = func(ctx context.Context, uid types.ID) bool { return true }
		indices.IndicesFullSyncFunc = func(ctx context.Context) error {
			time.Sleep(100 * time.Millisecond)
			return nil
		}

		success, err := indices.ScheduleNewSyncRun(&session.Session{Token: "t"})
		Expect(err).To(BeNil())
		Expect(success).To(BeTrue())

		success, err = indices.ScheduleNewSyncRun(&session.Session{Token: "t"})
		Expect(err).To(BeNil())
		Expect(success).To(BeFalse())

		time.Sleep(200 * time.Millisecond)

		success, err = indices.ScheduleNewSyncRun(&session.Session{Token: "t"})
		Expect(err).To(BeNil())
		Expect(success).To(BeTrue())
		time.Sleep(150 * time.Millisecond)
	})

	t.Run("status reports the last run", func(t *testing.T) {
		indices.IsAdminFunc = func(ctx context.Context, uid types.ID) bool { return true }
		indices.IndicesFullSyncFunc = func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return errors.New("es unavailable")
		}

		success, err := indices.ScheduleNewSyncRun(&session.Session{Token: "t"})
		Expect(err).To(BeNil())
		Expect(success).To(BeTrue())

		current, err := indices.QuerySyncStatus(&session.Session{Token: "t"})
		Expect(err).To(BeNil())
		Expect(current.Running).To(BeTrue())
		Expect(current.StartedAt).ToNot(BeNil())
		Expect(current.FinishedAt).To(BeNil())

		Eventually(func() bool {
			current, _ := indices.QuerySyncStatus(&session.Session{Token: "t"})
			return current.Running
		}, time.Second).Should(BeFalse())
		current, _ = indices.QuerySyncStatus(&session.Session{Token: "t"})
		Expect(current.FinishedAt).ToNot(BeNil())
		Expect(current.LastError).To(Equal("es unavailable"))
	})

	t.Run("status is admin only", func(t *testing.T) {
		indices.IsAdminFunc = func(ctx context.Context, uid types.ID) bool { return false }
		_, err := indices.QuerySyncStatus(&session.Session{Token: "t"})
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})
}

func TestIndicesFullSync(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should index every page until empty", func(t *testing.T) {
		indexed, _, restore := stubIndex()
		defer restore()
		indices.SyncBatchSize = 2
		defer func() { indices.SyncBatchSize = 500 }()

		pages := []int{}
		catalog.LoadProductViewsFunc = func(ctx context.Context, codes []string, page, pageSize int) ([]catalog.ProductView, error) {
			pages = append(pages, page)
			Expect(pageSize).To(Equal(2))
			switch page {
			case 1:
				return []catalog.ProductView{{Product: catalog.Product{ProdCode: "A0001"}}, {Product: catalog.Product{ProdCode: "A0002"}}}, nil
			case 2:
				return []catalog.ProductView{{Product: catalog.Product{ProdCode: "A0003"}}}, nil
			}
			return nil, nil
		}

		Expect(indices.IndicesFullSync(context.Background())).To(BeNil())
		Expect(pages).To(Equal([]int{1, 2, 3}))
		Expect(len(*indexed)).To(Equal(3))
	})

	t.Run("should stop on load error", func(t *testing.T) {
		_, _, restore := stubIndex()
		defer restore()
		catalog.LoadProductViewsFunc = func(ctx context.Context, codes []string, page, pageSize int) ([]catalog.ProductView, error) {
			return nil, errors.New("some error")
		}
		Expect(indices.IndicesFullSync(context.Background())).To(MatchError("retrieve products(page = 1, pageSize = 500): some error"))
	})

	t.Run("should recover from panic", func(t *testing.T) {
		_, _, restore := stubIndex()
		defer restore()
		catalog.LoadProductViewsFunc = func(ctx context.Context, codes []string, page, pageSize int) ([]catalog.ProductView, error) {
			panic("boom")
		}
		Expect(indices.IndicesFullSync(context.Background())).To(MatchError("error on indices full sync: boom"))
	})
}

func TestIndexProductEventHandle(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should ignore unrelated events", func(t *testing.T) {
		Expect(indices.IndexProductEventHandle(&event.EventRecord{Event: event.Event{SourceType: "OTHER"}})).To(BeNil())
	})

	t.Run("should remove document of deleted product", func(t *testing.T) {
		_, deleted, restore := stubIndex()
		defer restore()
		r := indices.IndexProductEventHandle(&event.EventRecord{Event: event.Event{SourceType: event.SourceTypeProduct,
			SourceId: "LT0007", EventCategory: event.EventCategoryDeleted}})
		Expect(r.Success).To(BeTrue())
		Expect(*deleted).To(Equal([]string{"LT0007"}))
	})

	t.Run("should reindex product of price event", func(t *testing.T) {
		indexed, _, restore := stubIndex()
		defer restore()
		var codes []string
		catalog.LoadProductViewsFunc = func(ctx context.Context, c []string, page, pageSize int) ([]catalog.ProductView, error) {
			codes = c
			return []catalog.ProductView{{Product: catalog.Product{ProdCode: "LT0007", Description: "Dell"},
				CurrentPrice: &catalog.PriceEntry{ProdCode: "LT0007", EffDate: misc.DateOf(2023, time.June, 1), UnitPrice: 12}}}, nil
		}

		r := indices.IndexProductEventHandle(&event.EventRecord{Event: event.Event{SourceType: event.SourceTypePrice,
			SourceId: "LT0007@2023-06-01", EventCategory: event.EventCategoryCreated}})
		Expect(r.Success).To(BeTrue())
		Expect(codes).To(Equal([]string{"LT0007"}))
		Expect(len(*indexed)).To(Equal(1))
		Expect((*indexed)[0].doc).To(Equal(indices.ProductDocument{ProdCode: "LT0007", Description: "Dell",
			CurrentPrice: &indices.IndexedPrice{EffDate: misc.DateOf(2023, time.June, 1), UnitPrice: 12}}))
	})

	t.Run("should remove document when product is gone", func(t *testing.T) {
		_, deleted, restore := stubIndex()
		defer restore()
		catalog.LoadProductViewsFunc = func(ctx context.Context, c []string, page, pageSize int) ([]catalog.ProductView, error) {
			return nil, nil
		}
		r := indices.IndexProductEventHandle(&event.EventRecord{Event: event.Event{SourceType: event.SourceTypeProduct,
			SourceId: "LT0007", EventCategory: event.EventCategoryPropertyUpdated}})
		Expect(r.Success).To(BeTrue())
		Expect(*deleted).To(Equal([]string{"LT0007"}))
	})

	t.Run("should report load failure", func(t *testing.T) {
		_, _, restore := stubIndex()
		defer restore()
		catalog.LoadProductViewsFunc = func(ctx context.Context, c []string, page, pageSize int) ([]catalog.ProductView, error) {
			return nil, errors.New("some error")
		}
		r := indices.IndexProductEventHandle(&event.EventRecord{Event: event.Event{SourceType: event.SourceTypeProduct,
			SourceId: "LT0007", EventCategory: event.EventCategoryCreated}})
		Expect(*r).To(Equal(event.EventHandleResult{Message: "load product LT0007 when index product, some error",
			HandlerIdentifier: indices.ProductIndexEventHandlerName}))
	})
}
