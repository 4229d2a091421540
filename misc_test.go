package keyset

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"moul.io/zapgorm2"

	// Pure Go driver registered as "sqlite", used behind the gorm dialector.
	_ "modernc.org/sqlite"
)

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}

// newGORMSQLite opens a file-backed sqlite database in a temporary directory.
// SQL is logged through zap to the test log.
func newGORMSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dialector := &sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        filepath.Join(t.TempDir(), "keyset.db"),
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: zapgorm2.New(zaptest.NewLogger(t))})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("gorm db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// renderSQL returns the statement db would run for Find, without running it.
func renderSQL(db *gorm.DB) string {
	stmt := db.Session(&gorm.Session{DryRun: true}).Find(&[]map[string]any{}).Statement

	return db.Dialector.Explain(stmt.SQL.String(), stmt.Vars...)
}
