// internal/models/account.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Account struct {
	BaseModel
	RecordKey   string      `json:"-" gorm:"size:200;uniqueIndex;not null"`
	Address     string      `json:"address" gorm:"size:128;not null;index"`
	SecretHash  string      `json:"-" gorm:"size:255"`
	Role        AccountRole `json:"role" gorm:"type:varchar(20);not null"`
	Balance     uint64      `json:"balance" gorm:"not null"`
	LastLoginAt *time.Time  `json:"last_login_at"`
}

func (a *Account) SetSecret(secret string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.SecretHash = string(hashed)
	return nil
}

func (a *Account) CheckSecret(secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.SecretHash), []byte(secret))
}
