package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"property-browser/internal/filter"
	"property-browser/internal/models"
)

type DB struct {
	conn *sql.DB
}

func NewDB(host, port, user, password, dbname, sslmode string) (*DB, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// NewDBFromConn wraps an already opened connection.
func NewDBFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the properties table if it doesn't exist
func (db *DB) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS properties (
		id VARCHAR(36) PRIMARY KEY,
		property_id VARCHAR(64) NOT NULL UNIQUE,
		title TEXT,

		-- Filter fields
		price BIGINT,
		bedrooms INTEGER,
		bathrooms INTEGER,
		sqft INTEGER,
		lot_size INTEGER,
		year_built INTEGER,
		property_type VARCHAR(32),
		status VARCHAR(32),

		address TEXT,
		city VARCHAR(100),
		state VARCHAR(100),
		zip_code VARCHAR(20),
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,

		description TEXT,
		images TEXT,
		amenities TEXT,
		agent_name VARCHAR(255),
		agent_phone VARCHAR(64),
		agent_email VARCHAR(255),
		listing_date TIMESTAMP,

		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_properties_created_at ON properties(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price);
	CREATE INDEX IF NOT EXISTS idx_properties_bedrooms ON properties(bedrooms);
	CREATE INDEX IF NOT EXISTS idx_properties_property_type ON properties(property_type);
	`
	_, err := db.conn.ExecContext(ctx, query)
	return err
}

const selectColumns = `id, property_id, title, price, bedrooms, bathrooms, sqft, lot_size, year_built,
		property_type, status, address, city, state, zip_code, latitude, longitude,
		description, images, amenities, agent_name, agent_phone, agent_email, listing_date,
		created_at, updated_at`

// buildPropertiesQuery pushes the criteria down as a WHERE clause.
func buildPropertiesQuery(c filter.Criteria) (string, []interface{}) {
	if c.IsEmpty() {
		return "SELECT " + selectColumns + " FROM properties ORDER BY created_at DESC", nil
	}

	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if c.MinPrice != nil {
		add("price >= $%d", *c.MinPrice)
	}
	if c.MaxPrice != nil {
		add("price <= $%d", *c.MaxPrice)
	}
	if c.Bedrooms != nil {
		add("bedrooms >= $%d", *c.Bedrooms)
	}
	if c.Bathrooms != nil {
		add("bathrooms >= $%d", *c.Bathrooms)
	}
	if c.PropertyType != "" {
		add("property_type = $%d", c.PropertyType)
	}

	query := "SELECT " + selectColumns + " FROM properties"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

// QueryProperties retrieves the properties matching c, newest first
func (db *DB) QueryProperties(ctx context.Context, c filter.Criteria) ([]models.Property, error) {
	query, args := buildPropertiesQuery(c)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	properties := []models.Property{}
	for rows.Next() {
		var p models.Property
		if err := rows.Scan(scanTargets(&p)...); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return properties, nil
}

// GetProperty retrieves a property by ID
func (db *DB) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	query := "SELECT " + selectColumns + " FROM properties WHERE id = $1"

	var p models.Property
	err := db.conn.QueryRowContext(ctx, query, id).Scan(scanTargets(&p)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get property %s: %w", id, err)
	}
	return &p, nil
}

// UpsertProperty saves a property keyed on property_id. On conflict the
// existing id and created_at are kept and copied back into p.
func (db *DB) UpsertProperty(ctx context.Context, p *models.Property) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
	INSERT INTO properties (
		id, property_id, title, price, bedrooms, bathrooms, sqft, lot_size, year_built,
		property_type, status, address, city, state, zip_code, latitude, longitude,
		description, images, amenities, agent_name, agent_phone, agent_email, listing_date,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26)
	ON CONFLICT (property_id) DO UPDATE SET
		title = EXCLUDED.title,
		price = EXCLUDED.price,
		bedrooms = EXCLUDED.bedrooms,
		bathrooms = EXCLUDED.bathrooms,
		sqft = EXCLUDED.sqft,
		lot_size = EXCLUDED.lot_size,
		year_built = EXCLUDED.year_built,
		property_type = EXCLUDED.property_type,
		status = EXCLUDED.status,
		address = EXCLUDED.address,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		zip_code = EXCLUDED.zip_code,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		description = EXCLUDED.description,
		images = EXCLUDED.images,
		amenities = EXCLUDED.amenities,
		agent_name = EXCLUDED.agent_name,
		agent_phone = EXCLUDED.agent_phone,
		agent_email = EXCLUDED.agent_email,
		listing_date = EXCLUDED.listing_date,
		updated_at = EXCLUDED.updated_at
	RETURNING id, created_at
	`
	err := db.conn.QueryRowContext(ctx, query,
		p.ID, p.PropertyID, p.Title, p.Price, p.Bedrooms, p.Bathrooms, p.Sqft, p.LotSize, p.YearBuilt,
		p.PropertyType, p.Status, p.Address, p.City, p.State, p.ZipCode, p.Latitude, p.Longitude,
		p.Description, p.Images, p.Amenities, p.AgentName, p.AgentPhone, p.AgentEmail, p.ListingDate,
		p.CreatedAt, p.UpdatedAt).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert property %s: %w", p.PropertyID, err)
	}
	return nil
}

func scanTargets(p *models.Property) []interface{} {
	return []interface{}{
		&p.ID, &p.PropertyID, &p.Title, &p.Price, &p.Bedrooms, &p.Bathrooms, &p.Sqft, &p.LotSize, &p.YearBuilt,
		&p.PropertyType, &p.Status, &p.Address, &p.City, &p.State, &p.ZipCode, &p.Latitude, &p.Longitude,
		&p.Description, &p.Images, &p.Amenities, &p.AgentName, &p.AgentPhone, &p.AgentEmail, &p.ListingDate,
		&p.CreatedAt, &p.UpdatedAt,
	}
}
