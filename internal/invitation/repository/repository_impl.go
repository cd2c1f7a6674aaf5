package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/samuel161415/BryteSpring/internal/invitation/domain"
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

func (r *repository) Create(ctx context.Context, invitation *domain.Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	if err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).
		Where("token = ?", strings.TrimSpace(token)).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) FindPending(ctx context.Context, verseID snowflake.ID, email string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).
		Where("verse_id = ? AND email = ? AND is_accepted = ?", verseID, strings.ToLower(email), false).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) FindAccepted(ctx context.Context, verseID snowflake.ID, email string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).
		Where("verse_id = ? AND email = ? AND is_accepted = ?", verseID, strings.ToLower(email), true).
		Order("accepted_at desc").
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) Update(ctx context.Context, invitation *domain.Invitation) error {
	return r.db.WithContext(ctx).Save(invitation).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.Invitation{}, "id = ?", id).Error
}

func (r *repository) ListByVerse(ctx context.Context, verseID snowflake.ID) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	err := r.db.WithContext(ctx).
		Where("verse_id = ?", verseID).
		Order("created_at desc").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *repository) ListAcceptedExcludingVerses(ctx context.Context, email string, excluded []snowflake.ID) ([]domain.Invitation, error) {
	stmt := r.db.WithContext(ctx).
		Where("email = ? AND is_accepted = ?", strings.ToLower(email), true)
	if len(excluded) > 0 {
		stmt = stmt.Where("verse_id NOT IN ?", excluded)
	}

	var invitations []domain.Invitation
	if err := stmt.Order("created_at desc").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}
