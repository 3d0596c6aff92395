package domain

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrAdminNotFound      = errors.New("admin account not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username already taken")
)

type Admin struct {
	gorm.Model
	Username     string `gorm:"column:username;type:varchar(50);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	Role         string `gorm:"column:role;type:varchar(32);not null;default:'admin'"`
}

func (Admin) TableName() string { return "admins" }

func NewAdmin(username, password, role string) *Admin {
	if role == "" {
		role = "admin"
	}
	return &Admin{
		Username:     username,
		PasswordHash: HashPassword(password),
		Role:         role,
	}
}

// HashPassword is a stand-in digest. Production deployments swap in a cost
// hash here; everything else only sees CheckPassword.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (a *Admin) CheckPassword(password string) bool {
	expected := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(a.PasswordHash), []byte(expected)) == 1
}

type AdminRepository interface {
	Save(ctx context.Context, admin *Admin) error
	GetByUsername(ctx context.Context, username string) (*Admin, error)
}
