package catalog

import (
	"stocktrack/misc"

	"github.com/fundwit/go-commons/types"
)

type Product struct {
	ProdCode    string           `json:"prodcode" gorm:"column:prodcode;primary_key;type:varchar(16)"`
	Description string           `json:"description" gorm:"column:description;type:varchar(255)"`
	Unit        string           `json:"unit" gorm:"column:unit;type:varchar(16)"`
	Status      string           `json:"status,omitempty" gorm:"column:status;type:varchar(16)"`
	Stamp       *types.Timestamp `json:"stamp,omitempty" gorm:"column:stamp" sql:"type:DATETIME(6)"`
}

func (p *Product) TableName() string {
	return "product"
}

type PriceEntry struct {
	ProdCode  string           `json:"prodcode" gorm:"column:prodcode;primary_key;type:varchar(16)"`
	EffDate   misc.Date        `json:"effdate" gorm:"column:effdate;primary_key;type:date"`
	UnitPrice float64          `json:"unitprice" gorm:"column:unitprice" sql:"type:DECIMAL(10,2)"`
	Status    string           `json:"status,omitempty" gorm:"column:status;type:varchar(16)"`
	Stamp     *types.Timestamp `json:"stamp,omitempty" gorm:"column:stamp" sql:"type:DATETIME(6)"`
}

func (p *PriceEntry) TableName() string {
	return "pricehist"
}

// ProductView is a product with its current price, nil when it has no price yet.
type ProductView struct {
	Product
	CurrentPrice *PriceEntry `json:"currentPrice"`
}

type ProductDetail struct {
	ProductView
	Prices []PriceEntry `json:"prices"`
}

type ProductCreation struct {
	Category    string          `json:"category" binding:"required,lte=8"`
	Number      string          `json:"number" binding:"required,lte=16"`
	Description string          `json:"description" binding:"required,lte=255"`
	Unit        string          `json:"unit" binding:"required,lte=16"`
	Prices      []PriceCreation `json:"prices" binding:"required,dive"`
}

type PriceCreation struct {
	UnitPrice float64   `json:"unitprice"`
	EffDate   misc.Date `json:"effdate"`
}

type ProductUpdating struct {
	Description string `json:"description" binding:"required,lte=255"`
	Unit        string `json:"unit" binding:"required,lte=16"`
}

type PriceUpdating struct {
	UnitPrice float64 `json:"unitprice"`
}

type ProductQuery struct {
	Page     int    `form:"page" binding:"gte=0"`
	PageSize int    `form:"pageSize" binding:"gte=0,lte=100"`
	Keyword  string `form:"keyword" binding:"lte=64"`
}
