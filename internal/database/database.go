package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/shortlinks/internal/entities"
)

// legacyMappingColumns were replaced by qrCodeData1/2 and qrOrder.
var legacyMappingColumns = []string{"isWechat", "qrCodeData"}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db}
	if err := database.Migrate(); err != nil {
		return nil, err
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

// Migrate creates missing tables, columns and indexes. It is safe to run on
// every start.
func (d *Database) Migrate() error {
	err := d.DB.AutoMigrate(
		&entities.Mapping{},
		&entities.AuditEvent{},
		&entities.Setting{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	d.dropLegacyColumns()
	return nil
}

func (d *Database) dropLegacyColumns() {
	for _, column := range legacyMappingColumns {
		if !d.hasMappingColumn(column) {
			continue
		}
		err := d.DB.Exec("ALTER TABLE ? DROP COLUMN ?",
			clause.Table{Name: entities.Mapping{}.TableName()}, clause.Column{Name: column}).Error
		if err == nil && d.hasMappingColumn(column) {
			err = fmt.Errorf("column still present")
		}
		if err != nil {
			log.Printf("Warning: failed to drop legacy column %s: %v", column, err)
			continue
		}
		log.Printf("Dropped legacy column %s from mappings", column)
	}
}

// hasMappingColumn reads the live schema through pragma_table_info.
func (d *Database) hasMappingColumn(name string) bool {
	var columns []struct {
		Name string
	}
	if err := d.DB.Raw("SELECT name FROM pragma_table_info(?)", entities.Mapping{}.TableName()).Scan(&columns).Error; err != nil {
		log.Printf("Warning: failed to read mappings schema: %v", err)
		return false
	}
	for _, c := range columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
