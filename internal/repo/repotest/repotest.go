// Package repotest opens isolated sqlite databases with the storefront schema
// for repository and service tests.
package repotest

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tortasnery/storefront/pkg/db"
	"github.com/tortasnery/storefront/pkg/migrate"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// NewDB returns a migrated in-memory database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", unsafeName.ReplaceAllString(t.Name(), "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	// A shared-cache memory database lives as long as one connection is open.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.AutoMigrateModels(context.Background(), db.Wrap(conn)); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// NewClient wraps NewDB for code that takes a *db.Client.
func NewClient(t testing.TB) *db.Client {
	t.Helper()
	return db.Wrap(NewDB(t))
}
