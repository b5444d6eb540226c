package catalog

import (
	"errors"
	"stocktrack/account"
	"stocktrack/authority"
	"stocktrack/bizerror"
	"stocktrack/domain/state"
	"stocktrack/event"
	"stocktrack/persistence"
	"stocktrack/session"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var (
	ErrProductExisted = &bizerror.ErrConflict{Code: "catalog.product_existed", Message: "product already exists"}

	IsAdminFunc = account.IsAdmin

	CreateProductFunc = CreateProduct
	UpdateProductFunc = UpdateProduct
	DeleteProductFunc = DeleteProduct
	QueryProductsFunc = QueryProducts
	DetailProductFunc = DetailProduct

	deletePriceRowsFunc = deletePriceRows
)

func CreateProduct(c *ProductCreation, s *session.Session) (*ProductDetail, error) {
	code, err := DeriveSKU(c.Category, c.Number)
	if err != nil {
		return nil, &bizerror.ErrBadParam{Cause: err}
	}
	if err := validateCreation(c); err != nil {
		return nil, &bizerror.ErrBadParam{Cause: err}
	}
	if err := requireWrite(s, authority.TableProduct, authority.ActionAddProduct); err != nil {
		return nil, err
	}

	now := types.CurrentTimestamp()
	p := Product{ProdCode: code, Description: strings.TrimSpace(c.Description), Unit: strings.TrimSpace(c.Unit),
		Status: state.StatusAdded, Stamp: &now}
	var records []*event.EventRecord
	err = persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&Product{}).Where("prodcode = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrProductExisted
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		for _, pc := range c.Prices {
			if _, _, err := upsertPrice(tx, code, pc, now); err != nil {
				return err
			}
		}

		r, err := event.CreateEvent(event.SourceTypeProduct, code, p.Description, event.EventCategoryCreated,
			event.UpdatedProperties{
				{PropertyName: "description", NewValue: p.Description},
				{PropertyName: "unit", NewValue: p.Unit},
			}, &s.Identity, now, tx)
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

	return DetailProduct(code, s)
}

func UpdateProduct(code string, u *ProductUpdating, s *session.Session) (*Product, error) {
	description, unit := strings.TrimSpace(u.Description), strings.TrimSpace(u.Unit)
	if description == "" || unit == "" {
		return nil, &bizerror.ErrBadParam{Cause: errors.New("description and unit are required")}
	}
	if err := requireWrite(s, authority.TableProduct, authority.ActionEditProduct); err != nil {
		return nil, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	p := Product{}
	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		old, err := findProduct(tx, code, admin)
		if err != nil {
			return err
		}
		status, err := state.StatusAfterEdit(old.Status)
		if err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		if err := tx.Model(&Product{}).Where("prodcode = ?", code).UpdateColumns(map[string]interface{}{
			"description": description, "unit": unit, "status": status, "stamp": now,
		}).Error; err != nil {
			return err
		}
		p = *old
		p.Description, p.Unit, p.Status, p.Stamp = description, unit, status, &now

		changes := event.UpdatedProperties{}
		if old.Description != description {
			changes = append(changes, event.UpdatedProperty{PropertyName: "description", OldValue: old.Description, NewValue: description})
		}
		if old.Unit != unit {
			changes = append(changes, event.UpdatedProperty{PropertyName: "unit", OldValue: old.Unit, NewValue: unit})
		}
		r, err := event.CreateEvent(event.SourceTypeProduct, code, description, event.EventCategoryPropertyUpdated,
			changes, &s.Identity, now, tx)
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
		p.conceal()
	}
	return &p, nil
}

// DeleteProduct removes the price rows of the product first, the product row is left untouched
// when that fails.
func DeleteProduct(code string, s *session.Session) error {
	if err := requireWrite(s, authority.TableProduct, authority.ActionDeleteProduct); err != nil {
		return err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	var records []*event.EventRecord
	err := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Transaction(func(tx *gorm.DB) error {
		p, err := findProduct(tx, code, admin)
		if err != nil {
			return err
		}
		if err := deletePriceRowsFunc(tx, code); err != nil {
			return err
		}
		if err := tx.Delete(&Product{}, "prodcode = ?", code).Error; err != nil {
			return err
		}
		r, err := event.CreateEvent(event.SourceTypeProduct, code, p.Description, event.EventCategoryDeleted,
			nil, &s.Identity, types.CurrentTimestamp(), tx)
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

func deletePriceRows(tx *gorm.DB, code string) error {
	return tx.Delete(&PriceEntry{}, "prodcode = ?", code).Error
}

// QueryProducts pages through the products ordered by code, each with its current price.
func QueryProducts(q *ProductQuery, s *session.Session) ([]ProductView, int64, error) {
	if err := authority.RequireTablePermission(s, authority.TableProduct, authority.LevelRead); err != nil {
		return nil, 0, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	page, pageSize := q.Page, q.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Ctx())
	query := db.Model(&Product{})
	if !admin {
		query = visibleOnly(query, "")
	}
	if keyword := strings.TrimSpace(q.Keyword); keyword != "" {
		like := containsPattern(keyword)
		query = query.Where("LOWER(description) LIKE ? ESCAPE '!' OR LOWER(prodcode) LIKE ? ESCAPE '!'", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	products := []Product{}
	if err := query.Order("prodcode ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	views, err := withCurrentPrices(db, products, admin)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func DetailProduct(code string, s *session.Session) (*ProductDetail, error) {
	if err := authority.RequireTablePermission(s, authority.TableProduct, authority.LevelRead); err != nil {
		return nil, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	db := persistence.ActiveDataSourceManager.GormDB(s.Ctx())
	p, err := findProduct(db, code, admin)
	if err != nil {
		return nil, err
	}
	prices, err := loadPrices(db, code, admin)
	if err != nil {
		return nil, err
	}
	if !admin {
		p.conceal()
	}
	return &ProductDetail{ProductView: ProductView{Product: *p, CurrentPrice: CurrentPrice(visiblePrices(prices))}, Prices: prices}, nil
}

func requireWrite(s *session.Session, table, action string) error {
	if err := authority.RequireTablePermission(s, table, authority.LevelWrite); err != nil {
		return err
	}
	return authority.RequireActionPermission(s, action)
}

func validateCreation(c *ProductCreation) error {
	if strings.TrimSpace(c.Description) == "" || strings.TrimSpace(c.Unit) == "" {
		return errors.New("description and unit are required")
	}
	if len(c.Prices) == 0 {
		return errors.New("at least one price is required")
	}
	for _, p := range c.Prices {
		if err := validatePrice(p.UnitPrice, p.EffDate.IsZero()); err != nil {
			return err
		}
	}
	return nil
}

func validatePrice(unitPrice float64, missingDate bool) error {
	if unitPrice <= 0 {
		return errors.New("unit price must be greater than 0")
	}
	if missingDate {
		return errors.New("effective date is required")
	}
	return nil
}

// findProduct hides deleted products from non admins.
func findProduct(db *gorm.DB, code string, admin bool) (*Product, error) {
	p := Product{}
	if err := db.Where("prodcode = ?", code).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrNotFound
		}
		return nil, err
	}
	if !admin && !state.Visible(p.Status) {
		return nil, bizerror.ErrNotFound
	}
	return &p, nil
}

func visibleOnly(db *gorm.DB, table string) *gorm.DB {
	column := "status"
	if table != "" {
		column = table + ".status"
	}
	return db.Where(column+" IS NULL OR "+column+" <> ?", state.StatusDeleted)
}

func loadPrices(db *gorm.DB, code string, admin bool) ([]PriceEntry, error) {
	query := db.Where("prodcode = ?", code)
	if !admin {
		query = visibleOnly(query, "")
	}
	prices := []PriceEntry{}
	if err := query.Order("effdate DESC").Find(&prices).Error; err != nil {
		return nil, err
	}
	if !admin {
		for i := range prices {
			prices[i].conceal()
		}
	}
	return prices, nil
}

// visiblePrices drops deleted entries; the current price never comes from one.
func visiblePrices(entries []PriceEntry) []PriceEntry {
	visible := make([]PriceEntry, 0, len(entries))
	for _, e := range entries {
		if state.Visible(e.Status) {
			visible = append(visible, e)
		}
	}
	return visible
}

func withCurrentPrices(db *gorm.DB, products []Product, admin bool) ([]ProductView, error) {
	views := make([]ProductView, 0, len(products))
	if len(products) == 0 {
		return views, nil
	}
	codes := make([]string, 0, len(products))
	for _, p := range products {
		codes = append(codes, p.ProdCode)
	}
	query := db.Where("prodcode IN (?)", codes)
	if !admin {
		query = visibleOnly(query, "")
	}
	prices := []PriceEntry{}
	if err := query.Find(&prices).Error; err != nil {
		return nil, err
	}
	byCode := map[string][]PriceEntry{}
	for _, e := range prices {
		byCode[e.ProdCode] = append(byCode[e.ProdCode], e)
	}
	for _, p := range products {
		current := CurrentPrice(visiblePrices(byCode[p.ProdCode]))
		if !admin {
			p.conceal()
			if current != nil {
				current.conceal()
			}
		}
		views = append(views, ProductView{Product: p, CurrentPrice: current})
	}
	return views, nil
}

func (p *Product) conceal() {
	p.Status = ""
	p.Stamp = nil
}

func (e *PriceEntry) conceal() {
	e.Status = ""
	e.Stamp = nil
}
