package indices

import (
	"context"
	"fmt"
	"stocktrack/bizerror"
	"stocktrack/catalog"
	"stocktrack/event"
	"stocktrack/session"
	"strings"
	"sync"

	"github.com/fundwit/go-commons/types"
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	ProductIndexEventHandlerName = "productIndexer"

	lock   sync.Mutex
	status SyncStatus

	SyncBatchSize = 500

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
	QuerySyncStatusFunc    = QuerySyncStatus
)

// SyncStatus describes the current or the last full sync run of this process.
type SyncStatus struct {
	Running    bool             `json:"running"`
	StartedAt  *types.Timestamp `json:"startedAt,omitempty"`
	FinishedAt *types.Timestamp `json:"finishedAt,omitempty"`
	LastError  string           `json:"lastError,omitempty"`
}

// ScheduleNewSyncRun starts a full sync in the background, false when one is already running.
func ScheduleNewSyncRun(s *session.Session) (bool, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return false, bizerror.ErrForbidden
	}
	return startSyncRun(), nil
}

func QuerySyncStatus(s *session.Session) (*SyncStatus, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	lock.Lock()
	defer lock.Unlock()
	current := status
	return &current, nil
}

func startSyncRun() bool {
	lock.Lock()
	if status.Running {
		lock.Unlock()
		return false
	}
	startedAt := types.CurrentTimestamp()
	status = SyncStatus{Running: true, StartedAt: &startedAt}
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		err := IndicesFullSyncFunc(context.Background())
		if err != nil {
			logrus.Errorf("indices fully sync: %v", err)
		}

		finishedAt := types.CurrentTimestamp()
		lock.Lock()
		defer lock.Unlock()
		status.Running, status.FinishedAt = false, &finishedAt
		if err != nil {
			status.LastError = err.Error()
		}
	}()
	waitRunning.Wait()
	return true
}

// StartCron schedules the nightly full sync. The cron expression carries a seconds field.
func StartCron(spec string) (*cron.Cron, error) {
	crontab := cron.New(cron.WithSeconds())
	if _, err := crontab.AddFunc(spec, func() {
		if !startSyncRun() {
			logrus.Infof("indices fully sync: skip scheduled run, another run is in progress")
		}
	}); err != nil {
		return nil, err
	}
	crontab.Start()
	return crontab, nil
}

func IndicesFullSync(ctx context.Context) (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	for page := 1; ; page++ {
		views, err := catalog.LoadProductViewsFunc(ctx, nil, page, SyncBatchSize)
		if err != nil {
			return fmt.Errorf("retrieve products(page = %d, pageSize = %d): %w", page, SyncBatchSize, err)
		}
		if len(views) == 0 {
			logrus.Infof("indices fully sync: there are no more products to index")
			return nil
		}
		if err := IndexProducts(ctx, views); err != nil {
			logrus.Warnf("indices fully sync: error on index products(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
	}
}

// IndexProductEventHandle keeps the product document in line with product and price events.
func IndexProductEventHandle(e *event.EventRecord) *event.EventHandleResult {
	var code string
	switch e.SourceType {
	case event.SourceTypeProduct:
		code = e.SourceId
	case event.SourceTypePrice:
		code = strings.SplitN(e.SourceId, "@", 2)[0]
	default:
		return nil
	}
	ctx := context.Background()

	if e.SourceType == event.SourceTypeProduct && e.EventCategory == event.EventCategoryDeleted {
		if err := RemoveProduct(ctx, code); err != nil {
			return failure("delete product index %s, %v", code, err)
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: ProductIndexEventHandlerName}
	}

	views, err := catalog.LoadProductViewsFunc(ctx, []string{code}, 0, 0)
	if err != nil {
		return failure("load product %s when index product, %v", code, err)
	}
	if len(views) == 0 {
		if err := RemoveProduct(ctx, code); err != nil {
			return failure("delete product index %s, %v", code, err)
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: ProductIndexEventHandlerName}
	}
	if err := IndexProducts(ctx, views); err != nil {
		return failure("index product %s, %v", code, err)
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: ProductIndexEventHandlerName}
}

func failure(format string, args ...interface{}) *event.EventHandleResult {
	return &event.EventHandleResult{Message: fmt.Sprintf(format, args...), HandlerIdentifier: ProductIndexEventHandlerName}
}
