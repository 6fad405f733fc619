package testutil

import (
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// RequireTestEnvironment fails the test immediately unless GO_ENV is "test".
// It prevents accidental execution against a development or production
// database URL.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("tests must run with GO_ENV=test to prevent data loss (current GO_ENV=%q)", env)
	}
}

// RequireTestEnvironmentOrSkip skips the test instead of failing it when
// GO_ENV is not "test". Use for optional suites gated on the environment.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Skipf("skipping: GO_ENV must be 'test' (current: %q)", env)
	}
}

// OpenTestDB opens an in-memory SQLite database and migrates the given
// models. Each call returns an isolated database, so suites that open one
// per test get full isolation without teardown.
func OpenTestDB(tb testing.TB, models ...interface{}) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		tb.Fatalf("failed to open test database: %v", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			tb.Fatalf("failed to migrate test database: %v", err)
		}
	}

	return db
}
