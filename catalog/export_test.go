package catalog

import "github.com/jinzhu/gorm"

// StubDeletePriceRows replaces the price row deletion of DeleteProduct until restore is called.
func StubDeletePriceRows(f func(tx *gorm.DB, code string) error) (restore func()) {
	deletePriceRowsFunc = f
	return func() { deletePriceRowsFunc = deletePriceRows }
}
