package catalog

import (
	"context"
	"stocktrack/persistence"
)

var LoadProductViewsFunc = LoadProductViews

// LoadProductViews reads products ordered by code for indexing, limited to codes when not empty.
// Deleted products keep their status; current prices only consider entries that are not deleted.
// A pageSize of 0 disables paging.
func LoadProductViews(ctx context.Context, codes []string, page, pageSize int) ([]ProductView, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)
	query := db.Order("prodcode ASC")
	if len(codes) > 0 {
		query = query.Where("prodcode IN (?)", codes)
	}
	if pageSize > 0 {
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	products := []Product{}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}

	views, err := withCurrentPrices(db, products, false)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Status = products[i].Status
		views[i].Stamp = products[i].Stamp
	}
	return views, nil
}
