package analytics

import (
	"context"
	"stocktrack/catalog"
	"stocktrack/domain/state"
	"stocktrack/persistence"

	"github.com/jinzhu/gorm"
)

// SampleLimit bounds the root rows of every chart.
const SampleLimit = 5

var (
	loadTopProductsFunc  = loadTopProducts
	loadTopCustomersFunc = loadTopCustomers
	loadSalesTrendFunc   = loadSalesTrend
	loadSummaryFunc      = loadSummary
)

// loadTopProducts: products, then their sale details.
func loadTopProducts(ctx context.Context) (*Dataset, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	ds := &Dataset{}
	if err := notDeleted(db).Order("prodcode ASC").Limit(SampleLimit).Find(&ds.Products).Error; err != nil {
		return nil, err
	}
	codes := productCodes(ds.Products)
	if err := findIn(db, "prodcode", codes, &ds.Details); err != nil {
		return nil, err
	}
	return ds, nil
}

// loadTopCustomers: customers, then sales, sale details, products and price history.
func loadTopCustomers(ctx context.Context) (*Dataset, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	ds := &Dataset{}
	if err := db.Order("custno ASC").Limit(SampleLimit).Find(&ds.Customers).Error; err != nil {
		return nil, err
	}
	custNos := make([]string, 0, len(ds.Customers))
	for _, c := range ds.Customers {
		custNos = append(custNos, c.CustNo)
	}
	if err := findIn(db, "custno", custNos, &ds.Sales); err != nil {
		return nil, err
	}
	if err := findIn(db, "transno", transNos(ds.Sales), &ds.Details); err != nil {
		return nil, err
	}
	if err := loadProductsAndPrices(db, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// loadSalesTrend: products, then sale details, sales and price history.
func loadSalesTrend(ctx context.Context) (*Dataset, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	ds := &Dataset{}
	if err := notDeleted(db).Order("prodcode ASC").Limit(SampleLimit).Find(&ds.Products).Error; err != nil {
		return nil, err
	}
	if err := findIn(db, "prodcode", productCodes(ds.Products), &ds.Details); err != nil {
		return nil, err
	}
	trans := map[string]bool{}
	nos := []string{}
	for _, d := range ds.Details {
		if !trans[d.TransNo] {
			trans[d.TransNo] = true
			nos = append(nos, d.TransNo)
		}
	}
	if err := findIn(db, "transno", nos, &ds.Sales); err != nil {
		return nil, err
	}
	if err := findIn(notDeleted(db), "prodcode", productCodes(ds.Products), &ds.Prices); err != nil {
		return nil, err
	}
	return ds, nil
}

func loadSummary(ctx context.Context) (*Summary, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	s := Summary{}
	if err := notDeleted(db).Model(&catalog.Product{}).Count(&s.Products).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Customer{}).Count(&s.Customers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Sale{}).Count(&s.Sales).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func loadProductsAndPrices(db *gorm.DB, ds *Dataset) error {
	seen := map[string]bool{}
	codes := []string{}
	for _, d := range ds.Details {
		if !seen[d.ProdCode] {
			seen[d.ProdCode] = true
			codes = append(codes, d.ProdCode)
		}
	}
	if err := findIn(notDeleted(db), "prodcode", codes, &ds.Products); err != nil {
		return err
	}
	ds.Details = linesOf(ds.Details, ds.Products)
	return findIn(notDeleted(db), "prodcode", productCodes(ds.Products), &ds.Prices)
}

// linesOf keeps the detail lines of the loaded products, dropping lines of deleted ones.
func linesOf(details []SaleDetail, products []catalog.Product) []SaleDetail {
	live := map[string]bool{}
	for _, p := range products {
		live[p.ProdCode] = true
	}
	kept := make([]SaleDetail, 0, len(details))
	for _, d := range details {
		if live[d.ProdCode] {
			kept = append(kept, d)
		}
	}
	return kept
}

// findIn issues one IN query, nothing when keys is empty.
func findIn(db *gorm.DB, column string, keys []string, out interface{}) error {
	if len(keys) == 0 {
		return nil
	}
	return db.Where(column+" IN (?)", keys).Find(out).Error
}

func notDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("status IS NULL OR status <> ?", state.StatusDeleted)
}

func productCodes(products []catalog.Product) []string {
	codes := make([]string, 0, len(products))
	for _, p := range products {
		codes = append(codes, p.ProdCode)
	}
	return codes
}

func transNos(sales []Sale) []string {
	nos := make([]string, 0, len(sales))
	for _, s := range sales {
		nos = append(nos, s.TransNo)
	}
	return nos
}
