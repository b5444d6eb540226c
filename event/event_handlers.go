package event

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventHandler returns nil when the record is of no interest to it.
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

// invokeHandlers runs after the record is committed, so a failing handler is reported
// but never undoes the change.
func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for idx, handler := range EventHandlers {
		r := safeHandle(idx, handler, record)
		if r == nil {
			continue
		}
		results = append(results, *r)

		entry := logrus.WithFields(logrus.Fields{"handler": r.HandlerIdentifier, "source": record.SourceType + "/" + record.SourceId,
			"category": record.EventCategory})
		if r.Success {
			entry.Debug(r.Message)
		} else {
			entry.Error(r.Message)
		}
	}
	return results
}

func safeHandle(idx int, handler EventHandler, record *EventRecord) (r *EventHandleResult) {
	defer func() {
		if p := recover(); p != nil {
			r = &EventHandleResult{Success: false, Message: fmt.Sprintf("handler panic: %v", p),
				HandlerIdentifier: fmt.Sprintf("handler-%d", idx)}
		}
	}()
	return handler(record)
}
