package models

import "time"

// Permission bits carried by a Role.
const (
	PermissionClient     = 0x01
	PermissionAdminister = 0x80
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"  json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null"                      json:"-"`
	Active       bool      `gorm:"not null;default:false"        json:"active"`
	CreatedAt    time.Time `json:"created"`
	RoleID       uint      `gorm:"index"                         json:"-"`
	Role         Role      `json:"role"`
}

// Can reports whether the user's role grants every bit in perm.
func (u *User) Can(perm int) bool {
	return u.Role.Permissions&perm == perm
}

func (u *User) IsAdmin() bool {
	return u.Can(PermissionAdminister)
}

type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:64;uniqueIndex"      json:"name"`
	Default     bool   `gorm:"index;default:false"      json:"default"`
	Permissions int    `json:"permissions"`
}
