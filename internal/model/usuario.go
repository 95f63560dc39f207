package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles. Admin has implicit access to every contrato; editor and viewer only
// see contratos granted via user_contract. Write operations require admin or
// editor.
const (
	RolAdmin  = "admin"
	RolEditor = "editor"
	RolViewer = "viewer"
)

// Usuario stores system users with role-based access.
type Usuario struct {
	ID           uuid.UUID `gorm:"column:usuario_id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Rol          string    `gorm:"type:varchar(20);not null"`
	Activo       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Usuario) TableName() string { return "usuario" }

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PuedeEscribir reports whether the role may mutate contract data.
func PuedeEscribir(rol string) bool { return rol == RolAdmin || rol == RolEditor }
