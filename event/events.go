package event

import (
	"stocktrack/idgen"
	"stocktrack/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var eventIdWorker = idgen.NewWorker()

func CreateEvent(sourceType string, sourceId string, sourceDesc string, category EventCategory,
	updatedProperties UpdatedProperties, identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*EventRecord, error) {

	record := EventRecord{
		ID: idgen.NextID(eventIdWorker),
		Event: Event{
			SourceType: sourceType,
			SourceId:   sourceId,
			SourceDesc: sourceDesc,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,

			CreatorId:   identity.ID,
			CreatorName: creatorName(identity),
		},
		Timestamp: timestamp,
	}
	if err := EventPersistCreateFunc(&record, db); err != nil {
		return nil, err
	}
	return &record, nil
}

func creatorName(identity *session.Identity) string {
	if identity.FullName != "" {
		return identity.FullName
	}
	return identity.Email
}

// InvokeHandlers hands every record to the registered handlers, in order.
func InvokeHandlers(records ...*EventRecord) {
	for _, r := range records {
		InvokeHandlersFunc(r)
	}
}
