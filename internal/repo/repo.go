package repo

import "gorm.io/gorm"

// GormRepo is the credential store. It owns User and Role persistence;
// token state lives elsewhere.
type GormRepo struct {
	DB *gorm.DB
}
