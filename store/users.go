package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"swiftserve/apperr"
	"swiftserve/models"
)

func (s *Store) GetUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return models.User{}, notFound(err, "user not found")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&u).Error
	if err != nil {
		return models.User{}, notFound(err, "user not found")
	}
	return u, nil
}

// CreateUser stores u with its email lowercased. A taken email is ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", u.Email).First(&existing).Error
	switch {
	case err == nil:
		return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return s.db.WithContext(ctx).Create(u).Error
}
