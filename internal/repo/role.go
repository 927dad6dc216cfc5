package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gatekeeper/gatekeeper/internal/models"
)

var ErrRoleNotFound = errors.New("role not found")

// SeedRoles inserts or refreshes the built-in roles. Exactly one role stays
// marked as default.
func (r *GormRepo) SeedRoles(ctx context.Context) error {
	raw := []models.Role{
		{Name: "User", Permissions: models.PermissionClient, Default: true},
		{Name: "Administrator", Permissions: 0xff, Default: false},
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, want := range raw {
			var role models.Role
			err := tx.Where("name = ?", want.Name).First(&role).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&want).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				role.Permissions = want.Permissions
				role.Default = want.Default
				if err := tx.Save(&role).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *GormRepo) DefaultRole(ctx context.Context) (*models.Role, error) {
	var role models.Role
	if err := r.DB.WithContext(ctx).Where("\"default\" = ?", true).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *GormRepo) AdminRole(ctx context.Context) (*models.Role, error) {
	var role models.Role
	if err := r.DB.WithContext(ctx).
		Where("permissions = ?", 0xff).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}
