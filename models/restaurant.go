package models

import "time"

type Restaurant struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	OwnerID   uint       `json:"owner_id" gorm:"uniqueIndex;not null"`
	Owner     *User      `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Name      string     `json:"name" gorm:"not null"`
	Address   string     `json:"address" gorm:"not null"`
	Cuisine   string     `json:"cuisine" gorm:"not null"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	MenuItems []MenuItem `json:"menu_items,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// HasLocation reports whether both coordinates are set.
func (r Restaurant) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

type MenuItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"index;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
