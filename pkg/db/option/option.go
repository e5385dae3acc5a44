package option

import "gorm.io/gorm"

// QueryOption mutates a gorm query before it executes. Options compose left
// to right.
type QueryOption func(*gorm.DB) *gorm.DB

func WithPreload(association string, args ...interface{}) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Preload(association, args...)
	}
}

func WithLimit(limit int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if limit > 0 {
			return tx.Limit(limit)
		}
		return tx
	}
}

func WithOrder(expr string) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Order(expr)
	}
}
