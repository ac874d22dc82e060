package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

func ValidRoles() []UserRole {
	return []UserRole{RoleUser, RoleAdmin}
}

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Username     string   `gorm:"size:50;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null;index"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	Phone        string   `gorm:"size:30"`

	EDPNo              string `gorm:"size:50"`
	Name               string `gorm:"size:100"`
	AddressOffice      string `gorm:"size:255"`
	AddressResidential string `gorm:"size:255"`
	Designation        string `gorm:"size:100"`
	PhoneOffice        string `gorm:"size:30"`
	PhoneResidential   string `gorm:"size:30"`
	Mobile             string `gorm:"size:30"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
