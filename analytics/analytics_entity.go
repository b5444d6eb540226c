package analytics

import (
	"fmt"
	"stocktrack/misc"
)

type Customer struct {
	CustNo   string `json:"custno" gorm:"column:custno;primary_key;type:varchar(16)"`
	CustName string `json:"custname" gorm:"column:custname;type:varchar(64)"`
	Address  string `json:"address" gorm:"column:address;type:varchar(255)"`
	PayTerm  string `json:"payterm" gorm:"column:payterm;type:varchar(16)"`
}

func (c *Customer) TableName() string {
	return "customer"
}

// Sale is a sales transaction header, SalesDate is nil for rows entered without a date.
type Sale struct {
	TransNo   string     `json:"transno" gorm:"column:transno;primary_key;type:varchar(16)"`
	SalesDate *misc.Date `json:"salesdate" gorm:"column:salesdate;type:date"`
	CustNo    string     `json:"custno" gorm:"column:custno;type:varchar(16)"`
	EmpNo     string     `json:"empno" gorm:"column:empno;type:varchar(16)"`
}

func (s *Sale) TableName() string {
	return "sales"
}

type SaleDetail struct {
	TransNo  string `json:"transno" gorm:"column:transno;primary_key;type:varchar(16)"`
	ProdCode string `json:"prodcode" gorm:"column:prodcode;primary_key;type:varchar(16)"`
	Quantity *int   `json:"quantity" gorm:"column:quantity"`
}

func (d *SaleDetail) TableName() string {
	return "salesdetail"
}

type ProductQuantity struct {
	ProdCode    string `json:"prodcode"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type CustomerRevenue struct {
	CustNo   string  `json:"custno"`
	CustName string  `json:"custname"`
	Revenue  float64 `json:"revenue"`
}

type MonthlySales struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

type Summary struct {
	Products  int64 `json:"products"`
	Customers int64 `json:"customers"`
	Sales     int64 `json:"sales"`
}

// Chart is the body of every analytics endpoint. Sample marks the illustrative fallback data.
type Chart[T any] struct {
	Data   T    `json:"data"`
	Sample bool `json:"sample"`
}

// DecodeError reports a loaded row that can not take part in a reduction.
type DecodeError struct {
	Table  string
	Key    string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %s: %s", e.Table, e.Key, e.Reason)
}
