package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/civic-proposals-api/internal/utils"
)

// Paginate applies limit/skip to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Skip).Limit(params.Limit)
	}
}
