package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"swiftserve/apperr"
	"swiftserve/models"
)

// RestaurantFilter narrows ListRestaurants. Empty fields match everything.
type RestaurantFilter struct {
	Cuisine string
	Search  string
}

func (s *Store) GetRestaurant(ctx context.Context, id uint) (models.Restaurant, error) {
	var r models.Restaurant
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return models.Restaurant{}, notFound(err, "restaurant not found")
	}
	return r, nil
}

// GetRestaurantByOwner returns the single restaurant a restaurant-role user owns.
func (s *Store) GetRestaurantByOwner(ctx context.Context, ownerID uint) (models.Restaurant, error) {
	var r models.Restaurant
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&r).Error; err != nil {
		return models.Restaurant{}, notFound(err, "no restaurant found for your account")
	}
	return r, nil
}

func (s *Store) ListRestaurants(ctx context.Context, f RestaurantFilter) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	query := s.db.WithContext(ctx)
	if f.Cuisine != "" {
		query = query.Where("cuisine LIKE ?", "%"+f.Cuisine+"%")
	}
	if f.Search != "" {
		query = query.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if err := query.Order("id").Find(&restaurants).Error; err != nil {
		return nil, err
	}
	return restaurants, nil
}

// CreateRestaurant refuses a second restaurant for the same owner.
func (s *Store) CreateRestaurant(ctx context.Context, r *models.Restaurant) error {
	_, err := s.GetRestaurantByOwner(ctx, r.OwnerID)
	switch {
	case err == nil:
		return fmt.Errorf("%w: you already have a restaurant", apperr.ErrConflict)
	case !errors.Is(err, apperr.ErrNotFound):
		return err
	}
	return s.db.WithContext(ctx).Create(r).Error
}

// UpdateRestaurant applies changes (column name to value) and returns the
// updated row.
func (s *Store) UpdateRestaurant(ctx context.Context, id uint, changes map[string]any) (models.Restaurant, error) {
	r, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return models.Restaurant{}, err
	}
	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&r).Updates(changes).Error; err != nil {
			return models.Restaurant{}, err
		}
	}
	return s.GetRestaurant(ctx, id)
}

// DeleteRestaurant removes the restaurant together with its menu. It is
// refused while any of its orders is still active; past orders keep their
// item snapshots.
func (s *Store) DeleteRestaurant(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		err := tx.Model(&models.Order{}).
			Where("restaurant_id = ? AND status IN ?", id, models.ActiveStatuses()).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: restaurant has %d active orders", apperr.ErrConflict, active)
		}

		if err := tx.Where("restaurant_id = ?", id).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Restaurant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: restaurant not found", apperr.ErrNotFound)
		}
		return nil
	})
}

func (s *Store) ListMenuItems(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("id").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetMenuItem(ctx context.Context, id uint) (models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return models.MenuItem{}, notFound(err, "menu item not found")
	}
	return item, nil
}

// GetMenuItems returns the items that still exist among ids.
func (s *Store) GetMenuItems(ctx context.Context, ids []uint) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateMenuItem(ctx context.Context, id uint, changes map[string]any) (models.MenuItem, error) {
	item, err := s.GetMenuItem(ctx, id)
	if err != nil {
		return models.MenuItem{}, err
	}
	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&item).Updates(changes).Error; err != nil {
			return models.MenuItem{}, err
		}
	}
	return s.GetMenuItem(ctx, id)
}

func (s *Store) DeleteMenuItem(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: menu item not found", apperr.ErrNotFound)
	}
	return nil
}
