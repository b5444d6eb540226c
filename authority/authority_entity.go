package authority

import (
	"fmt"
	"strings"

	"github.com/fundwit/go-commons/types"
)

// Level is the coarse per-table permission.
type Level string

const (
	LevelNone  Level = "none"
	LevelRead  Level = "read"
	LevelWrite Level = "write"
)

func (l Level) Valid() bool {
	return l == LevelNone || l == LevelRead || l == LevelWrite
}

// Satisfies reports whether a granted level l meets the required one.
func (l Level) Satisfies(required Level) bool {
	switch required {
	case LevelNone:
		return true
	case LevelRead:
		return l == LevelRead || l == LevelWrite
	case LevelWrite:
		return l == LevelWrite
	}
	return false
}

func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("invalid permission %q, must be one of read, write, none", s)
	}
	return l, nil
}

const (
	TableProduct     = "product"
	TablePriceHist   = "pricehist"
	TableSales       = "sales"
	TableSalesDetail = "salesdetail"
	TableCustomer    = "customer"
	TableProfiles    = "profiles"
)

var KnownTables = []string{TableProduct, TablePriceHist, TableSales, TableSalesDetail, TableCustomer, TableProfiles}

const (
	ActionAddProduct         = "can_add_product"
	ActionEditProduct        = "can_edit_product"
	ActionDeleteProduct      = "can_delete_product"
	ActionAddPriceHistory    = "can_add_price_history"
	ActionEditPriceHistory   = "can_edit_price_history"
	ActionDeletePriceHistory = "can_delete_price_history"
)

var KnownActions = []string{ActionAddProduct, ActionEditProduct, ActionDeleteProduct,
	ActionAddPriceHistory, ActionEditPriceHistory, ActionDeletePriceHistory}

func isKnownTable(table string) bool {
	for _, t := range KnownTables {
		if t == table {
			return true
		}
	}
	return false
}

type TablePermission struct {
	ID         types.ID        `json:"id" gorm:"primary_key"`
	UserID     types.ID        `json:"userId" gorm:"unique_index:uni_user_table"`
	Table      string          `json:"tableName" gorm:"column:table_name;type:varchar(64);unique_index:uni_user_table"`
	Permission Level           `json:"permission" gorm:"type:varchar(16)"`
	CreatedAt  types.Timestamp `json:"createdAt" sql:"type:DATETIME(6)"`
}

func (r *TablePermission) TableName() string {
	return "table_permissions"
}

type ActionPermission struct {
	ID             types.ID        `json:"id" gorm:"primary_key"`
	UserID         types.ID        `json:"userId" gorm:"unique_index:uni_user_permission"`
	PermissionName string          `json:"permissionName" gorm:"type:varchar(64);unique_index:uni_user_permission"`
	Enabled        bool            `json:"enabled"`
	CreatedAt      types.Timestamp `json:"createdAt" sql:"type:DATETIME(6)"`
}

func (r *ActionPermission) TableName() string {
	return "user_permissions"
}

type TablePermissionUpdating struct {
	TableName  string `json:"tableName" binding:"required,lte=64"`
	Permission string `json:"permission" binding:"required"`
}

type ActionPermissionUpdating struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// PermissionMatrix is the resolved authority of one identity.
type PermissionMatrix struct {
	Role    string           `json:"role"`
	Tables  map[string]Level `json:"tables"`
	Actions map[string]bool  `json:"actions"`
}
