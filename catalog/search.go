package catalog

import (
	"stocktrack/authority"
	"stocktrack/misc"
	"stocktrack/persistence"
	"stocktrack/session"
	"strings"

	"github.com/fundwit/go-commons/types"
)

// SearchResultLimit bounds the number of products returned by one search.
const SearchResultLimit = 50

var SearchProductsFunc = SearchProducts

// '!' escapes in both mysql and sqlite, unlike a backslash.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern matches term literally anywhere in a lower cased column.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

type searchRow struct {
	ProdCode    string           `gorm:"column:prodcode"`
	Description string           `gorm:"column:description"`
	Unit        string           `gorm:"column:unit"`
	Status      string           `gorm:"column:status"`
	Stamp       *types.Timestamp `gorm:"column:stamp"`
	EffDate     misc.Date        `gorm:"column:effdate"`
	UnitPrice   float64          `gorm:"column:unitprice"`
}

// SearchProducts matches term case-insensitively against code and description. Products without
// any price are not found. A blank term finds nothing and issues no query.
func SearchProducts(term string, s *session.Session) ([]ProductView, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []ProductView{}, nil
	}
	if err := authority.RequireTablePermission(s, authority.TableProduct, authority.LevelRead); err != nil {
		return nil, err
	}
	admin := IsAdminFunc(s.Ctx(), s.Identity.ID)

	like := containsPattern(term)
	query := persistence.ActiveDataSourceManager.GormDB(s.Ctx()).Table("product").
		Select("product.prodcode, product.description, product.unit, product.status, product.stamp, pricehist.effdate, pricehist.unitprice").
		Joins("JOIN pricehist ON pricehist.prodcode = product.prodcode").
		Where("LOWER(product.description) LIKE ? ESCAPE '!' OR LOWER(product.prodcode) LIKE ? ESCAPE '!'", like, like)
	query = visibleOnly(query, "pricehist")
	if !admin {
		query = visibleOnly(query, "product")
	}
	rows := []searchRow{}
	if err := query.Order("product.prodcode ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	return reduceSearchRows(rows, admin), nil
}

// reduceSearchRows keeps one view per product, carrying the price of the latest effective date.
func reduceSearchRows(rows []searchRow, admin bool) []ProductView {
	views := []ProductView{}
	index := map[string]int{}
	for _, row := range rows {
		price := PriceEntry{ProdCode: row.ProdCode, EffDate: row.EffDate, UnitPrice: row.UnitPrice}
		if i, found := index[row.ProdCode]; found {
			if row.EffDate.After(views[i].CurrentPrice.EffDate) {
				views[i].CurrentPrice = &price
			}
			continue
		}
		if len(views) == SearchResultLimit {
			continue
		}
		p := Product{ProdCode: row.ProdCode, Description: row.Description, Unit: row.Unit, Status: row.Status, Stamp: row.Stamp}
		if !admin {
			p.conceal()
		}
		index[row.ProdCode] = len(views)
		views = append(views, ProductView{Product: p, CurrentPrice: &price})
	}
	return views
}
