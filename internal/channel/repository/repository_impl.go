package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samuel161415/BryteSpring/internal/channel/domain"
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

func (r *repository) Create(ctx context.Context, channel *domain.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Channel, error) {
	var channel domain.Channel
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&channel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &channel, nil
}

func (r *repository) FindSibling(ctx context.Context, verseID snowflake.ID, parentID *snowflake.ID, nodeType, name string) (*domain.Channel, error) {
	stmt := r.db.WithContext(ctx).
		Where("verse_id = ? AND type = ? AND is_active = ?", verseID, nodeType, true).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if parentID == nil {
		stmt = stmt.Where("parent_id IS NULL")
	} else {
		stmt = stmt.Where("parent_id = ?", *parentID)
	}

	var channel domain.Channel
	if err := stmt.First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &channel, nil
}

func (r *repository) ListByVerse(ctx context.Context, verseID snowflake.ID) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.WithContext(ctx).
		Where("verse_id = ? AND is_active = ?", verseID, true).
		Order("path asc").
		Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *repository) ListChildren(ctx context.Context, parentID snowflake.ID) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND is_active = ?", parentID, true).
		Order("name asc").
		Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *repository) CountChildren(ctx context.Context, parentID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Channel{}).
		Where("parent_id = ? AND is_active = ?", parentID, true).
		Count(&count).Error
	return count, err
}

func (r *repository) Update(ctx context.Context, channel *domain.Channel) error {
	return r.db.WithContext(ctx).Save(channel).Error
}

func (r *repository) SoftDelete(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Model(&domain.Channel{}).
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
