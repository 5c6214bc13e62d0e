package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/utils"
)

// Regional is the locally persisted mirror of one police regional
// office. Rows are never deleted: retirement flips Active to false and
// identity changes (rename, new upstream code) are represented as
// retire + insert, so the table doubles as the audit history.
type Regional struct {
	ID           uint      `gorm:"primary_key" json:"id"`
	Name         string    `gorm:"index;size:200;not null" json:"name"`
	Active       *bool     `gorm:"index;not null;default:true" json:"active"`
	ExternalCode *int      `gorm:"index" json:"external_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRegional struct {
	Name         string `json:"name" binding:"required,max=200" validate:"required,max=200"`
	Active       *bool  `json:"active"`
	ExternalCode *int   `json:"external_code"`
}

type UpdateRegionalInput struct {
	Name   string `json:"name" binding:"omitempty,max=200" validate:"omitempty,max=200"`
	Active *bool  `json:"active" binding:"required" validate:"required"`
}

var validate = validator.New()

// CreateRegional inserts a new row. Active defaults to true when the
// input leaves it unset.
func CreateRegional(ctx context.Context, input *NewRegional) (*Regional, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	active := utils.NewTrue()
	if input.Active != nil {
		active = input.Active
	}
	regional := Regional{
		Name:         strings.TrimSpace(input.Name),
		Active:       active,
		ExternalCode: input.ExternalCode,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&regional).Error; err != nil {
		return nil, err
	}
	return &regional, nil
}

// UpdateRegional applies the administrative update semantics: a changed
// non-blank name retires the current row and inserts a fresh one
// carrying the same external code, so the old name survives as
// history. An unchanged name only updates the active flag.
func UpdateRegional(ctx context.Context, id uint, input *UpdateRegionalInput) (*Regional, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	existing, err := utils.FetchModel[Regional](ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("regional not found")
		}
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	renamed := name != "" && name != existing.Name

	db := config.GetDB()
	if !renamed {
		if err := db.WithContext(ctx).Model(existing).Update("active", input.Active).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	var replacement *Regional
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(existing).Update("active", false).Error; err != nil {
			return err
		}
		replacement = &Regional{
			Name:         name,
			Active:       input.Active,
			ExternalCode: existing.ExternalCode,
		}
		return tx.Create(replacement).Error
	})
	if err != nil {
		return nil, err
	}
	return replacement, nil
}

// GetActiveRegionals lists the current active set ordered by name, for
// the operator surface.
func GetActiveRegionals(ctx context.Context) ([]*Regional, error) {
	db := config.GetDB()
	var results []*Regional
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindAllActiveRegionals loads the active set in id order. The
// reconciler rebuilds its snapshot from this on every pass; nothing is
// cached across passes.
func FindAllActiveRegionals(ctx context.Context, db *gorm.DB) ([]Regional, error) {
	var results []Regional
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetRegionalHistory lists every row, active and retired, newest first.
func GetRegionalHistory(ctx context.Context) ([]*Regional, error) {
	db := config.GetDB()
	var results []*Regional
	if err := db.WithContext(ctx).Order("id DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// RetireRegionalByID flips one row inactive. Idempotent: retiring an
// already-inactive row affects zero rows and is not an error.
func RetireRegionalByID(ctx context.Context, db *gorm.DB, id uint) (int64, error) {
	result := db.WithContext(ctx).Model(&Regional{}).
		Where("id = ? AND active = ?", id, true).
		Update("active", false)
	return result.RowsAffected, result.Error
}

// DeactivateRegionalByExternalCode retires the active row carrying the
// given external code.
func DeactivateRegionalByExternalCode(ctx context.Context, db *gorm.DB, code int) (int64, error) {
	result := db.WithContext(ctx).Model(&Regional{}).
		Where("external_code = ? AND active = ?", code, true).
		Update("active", false)
	return result.RowsAffected, result.Error
}

// DeactivateRegionalByName retires active rows matching name exactly.
func DeactivateRegionalByName(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	result := db.WithContext(ctx).Model(&Regional{}).
		Where("name = ? AND active = ?", name, true).
		Update("active", false)
	return result.RowsAffected, result.Error
}
