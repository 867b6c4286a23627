// Package store is the gorm-backed record store for users, restaurants,
// menus and orders.
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"swiftserve/apperr"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// notFound turns gorm's missing-row error into apperr.ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	return err
}
