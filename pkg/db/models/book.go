package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// Book is a catalog entry. Stock never drops below zero.
type Book struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title       string             `gorm:"column:title;not null" json:"title"`
	Author      string             `gorm:"column:author;not null" json:"author"`
	ISBN        string             `gorm:"column:isbn;not null;uniqueIndex" json:"isbn"`
	Description *string            `gorm:"column:description" json:"description,omitempty"`
	Price       types.CatalogPrice `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Stock       int                `gorm:"column:stock;not null" json:"stock"`
	IsActive    bool               `gorm:"column:is_active;not null" json:"is_active"`
	CategoryID  *uuid.UUID         `gorm:"column:category_id;type:uuid" json:"category_id,omitempty"`
	Category    *Category          `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
