package event

import "github.com/jinzhu/gorm"

var (
	EventPersistCreateFunc = PersistEvent
	QueryEventsFunc        = QueryEvents
)

func PersistEvent(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}

// QueryEvents returns the history of one source, oldest first.
func QueryEvents(sourceType, sourceId string, db *gorm.DB) ([]EventRecord, error) {
	records := []EventRecord{}
	if err := db.Where("source_type = ? AND source_id = ?", sourceType, sourceId).
		Order("timestamp ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
