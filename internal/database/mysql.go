package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"property-browser/internal/filter"
	"property-browser/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(&models.Property{})
}

// QueryProperties retrieves the properties matching c, newest first
func (gdb *GormDB) QueryProperties(ctx context.Context, c filter.Criteria) ([]models.Property, error) {
	q := gdb.db.WithContext(ctx).Model(&models.Property{})

	if c.MinPrice != nil {
		q = q.Where("price >= ?", *c.MinPrice)
	}
	if c.MaxPrice != nil {
		q = q.Where("price <= ?", *c.MaxPrice)
	}
	if c.Bedrooms != nil {
		q = q.Where("bedrooms >= ?", *c.Bedrooms)
	}
	if c.Bathrooms != nil {
		q = q.Where("bathrooms >= ?", *c.Bathrooms)
	}
	if c.PropertyType != "" {
		q = q.Where("property_type = ?", c.PropertyType)
	}

	properties := []models.Property{}
	if err := q.Order("created_at DESC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	return properties, nil
}

// GetProperty retrieves a property by ID
func (gdb *GormDB) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	err := gdb.db.WithContext(ctx).Where("id = ?", id).First(&property).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get property %s: %w", id, err)
	}
	return &property, nil
}

// UpsertProperty saves or updates a property (upsert by property_id).
// On return p carries the id and created_at of the stored row.
func (gdb *GormDB) UpsertProperty(ctx context.Context, p *models.Property) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	err := gdb.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "property_id"}},
		DoUpdates: clause.AssignmentColumns(models.UpsertColumns),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert property %s: %w", p.PropertyID, err)
	}

	// ON DUPLICATE KEY UPDATE keeps the existing id, which MySQL does not
	// report back.
	var stored models.Property
	err = gdb.db.WithContext(ctx).
		Select("id", "created_at").
		Where("property_id = ?", p.PropertyID).
		Take(&stored).Error
	if err != nil {
		return fmt.Errorf("reload property %s: %w", p.PropertyID, err)
	}
	p.ID = stored.ID
	p.CreatedAt = stored.CreatedAt
	return nil
}
