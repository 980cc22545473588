// Package model contains the GORM persistence models.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// Email uniqueness is scoped to local-credential rows through a partial
// index: federated accounts are keyed on GoogleID alone, so two providers
// asserting the same email stay distinct rows. GoogleID is nullable and
// unique when present, so the database arbitrates both find-or-create races.
type UserModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email        string     `gorm:"type:varchar(255);not null;index:uniq_users_local_email,unique,where:google_id IS NULL"`
	PasswordHash *string    `gorm:"type:varchar(255)"`
	GoogleID     *string    `gorm:"type:varchar(255);unique"`
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
