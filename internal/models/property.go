package models

import "time"

// Property is a raw row of the properties table. Everything except the
// identifiers is nullable because rows come from a third-party feed.
type Property struct {
	ID         string `gorm:"type:varchar(36);primaryKey" json:"id"`
	PropertyID string `gorm:"type:varchar(64);not null;uniqueIndex" json:"property_id"`

	Title *string `gorm:"type:text" json:"title,omitempty"`

	// フィルタ用属性
	Price        *int64  `gorm:"type:bigint;index" json:"price,omitempty"`
	Bedrooms     *int    `gorm:"type:int;index" json:"bedrooms,omitempty"`
	Bathrooms    *int    `gorm:"type:int;index" json:"bathrooms,omitempty"`
	Sqft         *int    `gorm:"type:int" json:"sqft,omitempty"`
	LotSize      *int    `gorm:"type:int" json:"lot_size,omitempty"`
	YearBuilt    *int    `gorm:"type:int" json:"year_built,omitempty"`
	PropertyType *string `gorm:"type:varchar(32);index" json:"property_type,omitempty"`
	Status       *string `gorm:"type:varchar(32)" json:"status,omitempty"`

	Address   *string  `gorm:"type:text" json:"address,omitempty"`
	City      *string  `gorm:"type:varchar(100)" json:"city,omitempty"`
	State     *string  `gorm:"type:varchar(100)" json:"state,omitempty"`
	ZipCode   *string  `gorm:"type:varchar(20)" json:"zip_code,omitempty"`
	Latitude  *float64 `gorm:"type:decimal(10,7)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(10,7)" json:"longitude,omitempty"`

	Description *string          `gorm:"type:text" json:"description,omitempty"`
	Images      JSONList[string] `gorm:"type:text" json:"images"`
	Amenities   JSONList[any]    `gorm:"type:text" json:"amenities"`
	AgentName   *string          `gorm:"type:varchar(255)" json:"agent_name,omitempty"`
	AgentPhone  *string          `gorm:"type:varchar(64)" json:"agent_phone,omitempty"`
	AgentEmail  *string          `gorm:"type:varchar(255)" json:"agent_email,omitempty"`
	ListingDate *time.Time       `gorm:"type:datetime" json:"listing_date,omitempty"`

	// タイムスタンプ
	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime;index:idx_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TableName はテーブル名を明示的に指定
func (Property) TableName() string {
	return "properties"
}

// UpsertColumns are the columns rewritten when an ingested row collides on
// property_id. id and created_at are preserved.
var UpsertColumns = []string{
	"title", "price", "bedrooms", "bathrooms", "sqft", "lot_size", "year_built",
	"property_type", "status", "address", "city", "state", "zip_code",
	"latitude", "longitude", "description", "images", "amenities",
	"agent_name", "agent_phone", "agent_email", "listing_date", "updated_at",
}

// Ptr returns a pointer to v. Used when building rows by hand.
func Ptr[T any](v T) *T {
	return &v
}
