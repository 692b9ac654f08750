package repositories

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"tokoshop/internal/apperrors"
	"tokoshop/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// OrderSequenceName is the OrderSequence row used for order numbers.
const OrderSequenceName = "orders"

// logOutput receives GORM's slow query and error reports.
var logOutput io.Writer = os.Stdout

// newGormLogger logs slow queries and errors. A lookup that finds nothing is
// an ordinary not-found result and is not logged.
func newGormLogger(w io.Writer) logger.Interface {
	return logger.New(
		log.New(w, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// OpenDatabase connects to the configured driver ("sqlite" or "postgres").
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(logOutput)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if driver == "sqlite" {
		// SQLite has no row locks; one connection serializes writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(10)
	}
	return db, nil
}

// Migrate creates the schema and seeds the order number sequence so the
// first allocated number is start+1.
func Migrate(db *gorm.DB, start int64) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	seq := models.OrderSequence{Name: OrderSequenceName, Value: start}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return fmt.Errorf("failed to seed order sequence: %w", err)
	}
	return nil
}

// storageErr passes domain errors through untouched and marks anything
// else coming out of the driver as a retryable storage failure.
func storageErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.TransientStorage(err, "%s", fmt.Sprintf(format, args...))
}
