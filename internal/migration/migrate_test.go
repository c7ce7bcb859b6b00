package migration

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMigrationTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestRunMigrationsAppliesAndRecords(t *testing.T) {
	db := setupMigrationTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	var applied int64
	if err := db.Raw(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if applied == 0 {
		t.Fatal("expected at least one applied migration")
	}

	for _, table := range []string{
		"credit_balances",
		"credit_transactions",
		"membership_events",
		"companies",
		"company_configs",
		"audit_logs",
		"ledger_events",
	} {
		if err := db.Exec(fmt.Sprintf(`SELECT COUNT(1) FROM %s`, table)).Error; err != nil {
			t.Fatalf("expected table %s after migration: %v", table, err)
		}
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	db := setupMigrationTestDB(t)

	if err := RunMigrations(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	var first int64
	if err := db.Raw(`SELECT COUNT(1) FROM schema_migrations`).Scan(&first).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}

	if err := RunMigrations(db); err != nil {
		t.Fatalf("second run: %v", err)
	}
	var second int64
	if err := db.Raw(`SELECT COUNT(1) FROM schema_migrations`).Scan(&second).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if first != second {
		t.Fatalf("expected rerun to be a no-op, got %d then %d versions", first, second)
	}
}

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("CREATE TABLE a (id TEXT);\n\nCREATE INDEX b ON a (id);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(statements), statements)
	}
}
