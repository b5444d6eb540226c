package testinfra

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"stocktrack/persistence"
	"strings"

	"github.com/google/uuid"
)

type TestDatabase struct {
	TestDatabaseName string
	DS               *persistence.DataSourceManager

	file string
}

// StartTestDatabase starts an isolated database for one test case.
// A MySQL database is created when TEST_MYSQL_SERVICE is set (e.g. root:root@(127.0.0.1:3306)),
// otherwise a temporary sqlite file is used.
func StartTestDatabase(baseName string) *TestDatabase {
	databaseName := baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	mysqlSvc := os.Getenv("TEST_MYSQL_SERVICE")
	if mysqlSvc != "" {
		return startMysqlTestDatabase(mysqlSvc, databaseName)
	}

	file := filepath.Join(os.TempDir(), databaseName+".db")
	dbConfig := &persistence.DatabaseConfig{DriverType: persistence.DriverSqlite, DriverArgs: file}
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	return &TestDatabase{TestDatabaseName: databaseName, DS: ds, file: file}
}

func startMysqlTestDatabase(mysqlSvc, databaseName string) *TestDatabase {
	dbConfig := &persistence.DatabaseConfig{
		DriverType: persistence.DriverMysql,
		DriverArgs: mysqlSvc + "/" + databaseName + "?charset=utf8mb4&parseTime=True&loc=Local&timeout=5s",
	}

	// create database (no conflict)
	if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
		log.Fatalf("failed to prepare database %v\n", err)
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		log.Fatalf("database connection failed %v\n", err)
	}

	return &TestDatabase{TestDatabaseName: databaseName, DS: ds}
}

func StopTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}

	if testDatabase.file == "" {
		if db := testDatabase.DS.GormDB(context.Background()); db != nil {
			if err := db.Exec("DROP DATABASE " + testDatabase.TestDatabaseName).Error; err != nil {
				log.Println("failed to drop test database: " + testDatabase.TestDatabaseName)
			}
		}
	}

	testDatabase.DS.Stop()

	if testDatabase.file != "" {
		_ = os.Remove(testDatabase.file)
	}
}
