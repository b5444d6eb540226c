package dataadmin

import (
	"errors"
	"stocktrack/account"
	"stocktrack/bizerror"
	"stocktrack/catalog"
	"stocktrack/domain/state"
	"stocktrack/event"
	"stocktrack/misc"
	"stocktrack/persistence"
	"stocktrack/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	IsAdminFunc = account.IsAdmin

	QueryProductsFunc     = QueryProducts
	QueryPricesFunc       = QueryPrices
	SoftDeleteProductFunc = SoftDeleteProduct
	RestoreProductFunc    = RestoreProduct
	SoftDeletePriceFunc   = SoftDeletePrice
	RestorePriceFunc      = RestorePrice
)

// QueryProducts lists every product, deleted ones included.
func QueryProducts(s *session.Session) ([]catalog.Product, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	products := []catalog.Product{}
	if err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Order("prodcode ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func QueryPrices(code string, s *session.Session) ([]catalog.PriceEntry, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Ctx())
	if _, err := findProduct(db, code); err != nil {
		return nil, err
	}
	prices := []catalog.PriceEntry{}
	if err := db.Where("prodcode = ?", code).Order("effdate DESC").Find(&prices).Error; err != nil {
		return nil, err
	}
	return prices, nil
}

// SoftDeleteProduct marks the product and its live price rows deleted.
func SoftDeleteProduct(code string, s *session.Session) (*catalog.Product, error) {
	return transitProduct(code, state.StatusDeleted, event.EventCategoryDeleted, s)
}

// RestoreProduct brings back a deleted product together with its deleted price rows.
// Field values are kept as they were at deletion.
func RestoreProduct(code string, s *session.Session) (*catalog.Product, error) {
	return transitProduct(code, state.StatusRestored, event.EventCategoryRestored, s)
}

func SoftDeletePrice(code string, effDate misc.Date, s *session.Session) (*catalog.PriceEntry, error) {
	return transitPrice(code, effDate, state.StatusDeleted, event.EventCategoryDeleted, s)
}

func RestorePrice(code string, effDate misc.Date, s *session.Session) (*catalog.PriceEntry, error) {
	return transitPrice(code, effDate, state.StatusRestored, event.EventCategoryRestored, s)
}

func transitProduct(code string, to string, category event.EventCategory, s *session.Session) (*catalog.Product, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}

	p := &catalog.Product{}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = findProduct(tx, code)
		if err != nil {
			return err
		}
		if _, err := state.RecordLifecycle.Transit(p.Status, to); err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		if err := tx.Model(&catalog.Product{}).Where("prodcode = ?", code).
			UpdateColumns(map[string]interface{}{"status": to, "stamp": now}).Error; err != nil {
			return err
		}
		if err := cascadePrices(tx, code, to, now); err != nil {
			return err
		}

		r, err := event.CreateEvent(event.SourceTypeProduct, code, p.Description, category,
			event.UpdatedProperties{{PropertyName: "status", OldValue: p.Status, NewValue: to}}, &s.Identity, now, tx)
		if err != nil {
			return err
		}
		records = append(records, r)
		p.Status, p.Stamp = to, &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeHandlers(records...)
	return p, nil
}

// cascadePrices moves every price row of the product that may take the transition.
func cascadePrices(tx *gorm.DB, code string, to string, now types.Timestamp) error {
	from := []string{}
	for _, t := range state.RecordLifecycle.Transitions {
		if t.To.Name == to {
			from = append(from, t.From.Name)
		}
	}
	query := tx.Model(&catalog.PriceEntry{}).Where("prodcode = ?", code)
	if containsNone(from) {
		query = query.Where("status IN (?) OR status IS NULL", from)
	} else {
		query = query.Where("status IN (?)", from)
	}
	return query.UpdateColumns(map[string]interface{}{"status": to, "stamp": now}).Error
}

func containsNone(statuses []string) bool {
	for _, s := range statuses {
		if s == state.StatusNone {
			return true
		}
	}
	return false
}

func transitPrice(code string, effDate misc.Date, to string, category event.EventCategory, s *session.Session) (*catalog.PriceEntry, error) {
	if !IsAdminFunc(s.Ctx(), s.Identity.ID) {
		return nil, bizerror.ErrForbidden
	}

	entry := &catalog.PriceEntry{}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("prodcode = ? AND effdate = ?", code, effDate).First(entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return bizerror.ErrNotFound
			}
			return err
		}
		if _, err := state.RecordLifecycle.Transit(entry.Status, to); err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		if err := tx.Model(&catalog.PriceEntry{}).Where("prodcode = ? AND effdate = ?", code, effDate).
			UpdateColumns(map[string]interface{}{"status": to, "stamp": now}).Error; err != nil {
			return err
		}
		r, err := event.CreateEvent(event.SourceTypePrice, catalog.PriceSourceID(code, effDate), code, category,
			event.UpdatedProperties{{PropertyName: "status", OldValue: entry.Status, NewValue: to}}, &s.Identity, now, tx)
		if err != nil {
			return err
		}
		records = append(records, r)
		entry.Status, entry.Stamp = to, &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	event.InvokeHandlers(records...)
	return entry, nil
}

func findProduct(db *gorm.DB, code string) (*catalog.Product, error) {
	p := catalog.Product{}
	if err := db.Where("prodcode = ?", code).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
