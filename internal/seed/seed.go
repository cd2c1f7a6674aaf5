// Package seed bootstraps accounts required before the first request.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/samuel161415/BryteSpring/internal/auth/domain"
	"github.com/samuel161415/BryteSpring/internal/auth/password"
	"github.com/samuel161415/BryteSpring/internal/config"
	"gorm.io/gorm"
)

// EnsureSuperadmin creates the configured superadmin account if it does
// not exist yet. Without a superadmin no verse can ever be bootstrapped.
func EnsureSuperadmin(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.SuperadminEmail))
	if email == "" || cfg.SuperadminPassword == "" {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
		if err == nil {
			if user.IsSuperadmin {
				return nil
			}
			user.IsSuperadmin = true
			user.UpdatedAt = time.Now().UTC()
			return tx.WithContext(ctx).Save(&user).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(cfg.SuperadminPassword)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			PasswordHash: hashed,
			IsSuperadmin: true,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}
