package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/samuel161415/BryteSpring/internal/role/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *repository) Create(ctx context.Context, role *domain.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *repository) FindByVerseAndName(ctx context.Context, verseID snowflake.ID, name string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.WithContext(ctx).
		Where("verse_id = ? AND name = ?", verseID, name).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *repository) ListByVerse(ctx context.Context, verseID snowflake.ID) ([]domain.Role, error) {
	var roles []domain.Role
	err := r.db.WithContext(ctx).
		Where("verse_id = ?", verseID).
		Order("name asc").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *repository) Update(ctx context.Context, role *domain.Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&domain.Role{}, "id = ?", id).Error
}

// CreateUserRole inserts the assignment, reactivating a previously revoked
// row for the same (user, verse) pair in place.
func (r *repository) CreateUserRole(ctx context.Context, userRole *domain.UserRole) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "verse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role_id", "assigned_by", "is_active", "created_at"}),
	}).Create(userRole).Error
}

func (r *repository) FindActiveUserRole(ctx context.Context, userID, verseID snowflake.ID) (*domain.UserRole, error) {
	var userRole domain.UserRole
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND verse_id = ? AND is_active = ?", userID, verseID, true).
		First(&userRole).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, err
	}
	return &userRole, nil
}

func (r *repository) HasUserRole(ctx context.Context, userID, verseID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.UserRole{}).
		Where("user_id = ? AND verse_id = ? AND is_active = ?", userID, verseID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) DeactivateUserRole(ctx context.Context, userID, verseID snowflake.ID) error {
	result := r.db.WithContext(ctx).Model(&domain.UserRole{}).
		Where("user_id = ? AND verse_id = ? AND is_active = ?", userID, verseID, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAssignmentNotFound
	}
	return nil
}

func (r *repository) CountActiveMembers(ctx context.Context, verseID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.UserRole{}).
		Where("verse_id = ? AND is_active = ?", verseID, true).
		Count(&count).Error
	return count, err
}

func (r *repository) CountAssignments(ctx context.Context, roleID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.UserRole{}).
		Where("role_id = ? AND is_active = ?", roleID, true).
		Count(&count).Error
	return count, err
}
