package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

const (
	SourceTypeProduct = "PRODUCT"
	SourceTypePrice   = "PRICE"
)

type EventCategory string

const (
	EventCategoryCreated         EventCategory = "CREATED"
	EventCategoryDeleted         EventCategory = "DELETED"
	EventCategoryPropertyUpdated EventCategory = "PROPERTY_UPDATED"
	EventCategoryRestored        EventCategory = "RESTORED"
)

type Event struct {
	SourceId   string `json:"sourceId" gorm:"type:varchar(64);index:idx_event_source"`
	SourceType string `json:"sourceType" gorm:"type:varchar(16);index:idx_event_source"`
	SourceDesc string `json:"sourceDesc"`

	CreatorId   types.ID `json:"creatorId"`
	CreatorName string   `json:"creatorName"`

	EventCategory     EventCategory     `json:"eventCategory" gorm:"type:varchar(32)"` // CREATED, DELETED, PROPERTY_UPDATED, RESTORED
	UpdatedProperties UpdatedProperties `json:"updatedProperties" sql:"type:TEXT"`
}

type EventRecord struct {
	ID types.ID `json:"id" gorm:"primary_key"`
	Event

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6)"`
}

func (r *EventRecord) TableName() string {
	return "events"
}

type UpdatedProperty struct {
	PropertyName string `json:"propertyName"`
	OldValue     string `json:"oldValue"`
	NewValue     string `json:"newValue"`
}

type UpdatedProperties []UpdatedProperty

func (t UpdatedProperties) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (c *UpdatedProperties) Scan(v interface{}) error {
	if v == nil {
		*c = nil
		return nil
	}
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	return json.Unmarshal([]byte(jsonString), c)
}
