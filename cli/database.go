package cli

import (
	"context"
	"fmt"
	"stocktrack/account"
	"stocktrack/analytics"
	"stocktrack/authority"
	"stocktrack/catalog"
	"stocktrack/config"
	"stocktrack/event"
	"stocktrack/persistence"
)

// Tables lists every entity owned by the service, in migration order.
var Tables = []interface{}{
	&account.User{}, &account.Profile{},
	&authority.TablePermission{}, &authority.ActionPermission{},
	&catalog.Product{}, &catalog.PriceEntry{},
	&analytics.Customer{}, &analytics.Sale{}, &analytics.SaleDetail{},
	&event.EventRecord{},
}

// openDatabase connects the datasource and makes it the active one.
func openDatabase(c config.DatabaseConfig) (*persistence.DataSourceManager, error) {
	if c.Driver == persistence.DriverMysql {
		if err := persistence.PrepareMysqlDatabase(c.Args); err != nil {
			return nil, fmt.Errorf("prepare database: %w", err)
		}
	}
	ds := &persistence.DataSourceManager{DatabaseConfig: &persistence.DatabaseConfig{
		DriverType: c.Driver, DriverArgs: c.Args, LogMode: c.LogMode}}
	if err := ds.Start(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	persistence.ActiveDataSourceManager = ds
	return ds, nil
}

func migrate(ds *persistence.DataSourceManager) error {
	if err := ds.GormDB(context.Background()).AutoMigrate(Tables...).Error; err != nil {
		return fmt.Errorf("database migration: %w", err)
	}
	return nil
}
