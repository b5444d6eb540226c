package catalog

import (
	"errors"
	"stocktrack/authority"
	"stocktrack/bizerror"
	"stocktrack/domain/state"
	"stocktrack/event"
	"stocktrack/misc"
	"stocktrack/persistence"
	"stocktrack/session"
	"strconv"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	AddPriceFunc          = AddPrice
	UpdatePriceFunc       = UpdatePrice
	DeletePriceFunc       = DeletePrice
	QueryPriceHistoryFunc = QueryPriceHistory
)

// AddPrice upserts on (code, effdate): an entry of the same day is overwritten.
func AddPrice(code string, pc *PriceCreation, s *session.Session) (*PriceEntry, error) {
	if err := validatePrice(pc.UnitPrice, pc.EffDate.IsZero()); err != nil {
		return nil, &bizerror.ErrBadParam{Cause: err}
	}
	if err := requireWrite(s, authority.TablePriceHist, authority.ActionAddPriceHistory); err != nil {
		return nil, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	var entry *PriceEntry
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(tx, code, admin)
		if err != nil {
			return err
		}
		now := types.CurrentTimestamp()
		var old *PriceEntry
		entry, old, err = upsertPrice(tx, code, *pc, now)
		if err != nil {
			return err
		}

		category := event.EventCategoryCreated
		change := event.UpdatedProperty{PropertyName: "unitprice", NewValue: formatPrice(entry.UnitPrice)}
		if old != nil {
			category = event.EventCategoryPropertyUpdated
			change.OldValue = formatPrice(old.UnitPrice)
		}
		r, err := event.CreateEvent(event.SourceTypePrice, PriceSourceID(code, pc.EffDate), p.Description, category,
			event.UpdatedProperties{change}, &s.Identity, now, tx)
		if err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeHandlers(records...)

	if !admin {
		entry.conceal()
	}
	return entry, nil
}

func UpdatePrice(code string, effDate misc.Date, u *PriceUpdating, s *session.Session) (*PriceEntry, error) {
	if err := validatePrice(u.UnitPrice, effDate.IsZero()); err != nil {
		return nil, &bizerror.ErrBadParam{Cause: err}
	}
	if err := requireWrite(s, authority.TablePriceHist, authority.ActionEditPriceHistory); err != nil {
		return nil, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	entry := PriceEntry{}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		old, err := findPrice(tx, code, effDate, admin)
		if err != nil {
			return err
		}
		status, err := state.StatusAfterEdit(old.Status)
		if err != nil {
			return err
		}
		now := types.CurrentTimestamp()
		if err := tx.Model(&PriceEntry{}).Where("prodcode = ? AND effdate = ?", code, effDate).UpdateColumns(map[string]interface{}{
			"unitprice": u.UnitPrice, "status": status, "stamp": now,
		}).Error; err != nil {
			return err
		}
		entry = *old
		entry.UnitPrice, entry.Status, entry.Stamp = u.UnitPrice, status, &now

		r, err := event.CreateEvent(event.SourceTypePrice, PriceSourceID(code, effDate), code, event.EventCategoryPropertyUpdated,
			event.UpdatedProperties{{PropertyName: "unitprice", OldValue: formatPrice(old.UnitPrice), NewValue: formatPrice(u.UnitPrice)}},
			&s.Identity, now, tx)
		if err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeHandlers(records...)

	if !admin {
		entry.conceal()
	}
	return &entry, nil
}

func DeletePrice(code string, effDate misc.Date, s *session.Session) error {
	if err := requireWrite(s, authority.TablePriceHist, authority.ActionDeletePriceHistory); err != nil {
		return err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		old, err := findPrice(tx, code, effDate, admin)
		if err != nil {
			return err
		}
		if err := tx.Delete(&PriceEntry{}, "prodcode = ? AND effdate = ?", code, effDate).Error; err != nil {
			return err
		}
		r, err := event.CreateEvent(event.SourceTypePrice, PriceSourceID(code, effDate), code, event.EventCategoryDeleted,
			event.UpdatedProperties{{PropertyName: "unitprice", OldValue: formatPrice(old.UnitPrice)}},
			&s.Identity, types.CurrentTimestamp(), tx)
		if err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return err
	}
	event.InvokeHandlers(records...)
	return nil
}

// QueryPriceHistory returns the entries of one product, latest effective date first.
func QueryPriceHistory(code string, s *session.Session) ([]PriceEntry, error) {
	if err := authority.RequireTablePermission(s, authority.TablePriceHist, authority.LevelRead); err != nil {
		return nil, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	db := persistence.ActiveDataSourceManager.GormDB(s.Ctx())
	if _, err := findProduct(db, code, admin); err != nil {
		return nil, err
	}
	return loadPrices(db, code, admin)
}

// PriceSourceID identifies a price entry in events and in the search index.
func PriceSourceID(code string, effDate misc.Date) string {
	return code + "@" + effDate.String()
}

func upsertPrice(tx *gorm.DB, code string, pc PriceCreation, now types.Timestamp) (*PriceEntry, *PriceEntry, error) {
	existing := PriceEntry{}
	err := tx.Where("prodcode = ? AND effdate = ?", code, pc.EffDate).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry := PriceEntry{ProdCode: code, EffDate: pc.EffDate, UnitPrice: pc.UnitPrice, Status: state.StatusAdded, Stamp: &now}
		if err := tx.Create(&entry).Error; err != nil {
			return nil, nil, err
		}
		return &entry, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	status, err := state.StatusAfterEdit(existing.Status)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Model(&PriceEntry{}).Where("prodcode = ? AND effdate = ?", code, pc.EffDate).UpdateColumns(map[string]interface{}{
		"unitprice": pc.UnitPrice, "status": status, "stamp": now,
	}).Error; err != nil {
		return nil, nil, err
	}
	entry := existing
	entry.UnitPrice, entry.Status, entry.Stamp = pc.UnitPrice, status, &now
	return &entry, &existing, nil
}

func findPrice(db *gorm.DB, code string, effDate misc.Date, admin bool) (*PriceEntry, error) {
	e := PriceEntry{}
	if err := db.Where("prodcode = ? AND effdate = ?", code, effDate).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if !admin && !state.Visible(e.Status) {
		return nil, bizerror.ErrNotFound
	}
	return &e, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
