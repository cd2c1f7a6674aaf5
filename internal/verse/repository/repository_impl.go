package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samuel161415/BryteSpring/internal/verse/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, verse *domain.Verse) error {
	return r.db.WithContext(ctx).Create(verse).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Verse, error) {
	var verse domain.Verse
	if err := r.db.WithContext(ctx).First(&verse, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &verse, nil
}

func (r *repository) FindActiveBySubdomain(ctx context.Context, subdomain string) (*domain.Verse, error) {
	var verse domain.Verse
	err := r.db.WithContext(ctx).
		Where("subdomain = ? AND is_active = ?", strings.ToLower(subdomain), true).
		First(&verse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &verse, nil
}

func (r *repository) Update(ctx context.Context, verse *domain.Verse) error {
	return r.db.WithContext(ctx).Save(verse).Error
}

func (r *repository) SoftDelete(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Model(&domain.Verse{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Verse, int64, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Verse{}).
		Where("is_active = ?", true)

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(admin_email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var verses []domain.Verse
	err := stmt.
		Order("created_at desc").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&verses).Error
	if err != nil {
		return nil, 0, err
	}
	return verses, total, nil
}
