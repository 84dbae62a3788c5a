package models

import "github.com/shopspring/decimal"

type Category struct {
	ID    uint   `gorm:"primaryKey"`
	Slug  string `gorm:"size:255;uniqueIndex;not null"`
	Title string `gorm:"size:255;index;not null"`
}

type MenuItem struct {
	ID         uint            `gorm:"primaryKey"`
	Title      string          `gorm:"size:255;index;not null"`
	Price      decimal.Decimal `gorm:"type:decimal(6,2);index;not null"`
	Featured   bool            `gorm:"index;not null;default:false"`
	CategoryID uint            `gorm:"index;not null"`
	Category   Category        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
