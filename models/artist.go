package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/utils"
)

type Artist struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:120;not null" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewArtist struct {
	Name string `json:"name" binding:"required,max=120" validate:"required,max=120"`
}

func CreateArtist(ctx context.Context, input *NewArtist) (*Artist, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUniqueName[Artist](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	artist := Artist{Name: strings.TrimSpace(input.Name)}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&artist).Error; err != nil {
		// The unique index can still fire under concurrent creates.
		if utils.IsDuplicateEntry(err) {
			return nil, errors.New("artist name already in use")
		}
		return nil, err
	}
	return &artist, nil
}

func UpdateArtist(ctx context.Context, id uint, input *NewArtist) (*Artist, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUniqueName[Artist](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	artist, err := utils.FetchModel[Artist](ctx, id)
	if err != nil {
		return nil, errors.New("artist not found")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(artist).Update("name", strings.TrimSpace(input.Name)).Error; err != nil {
		return nil, err
	}
	return artist, nil
}

func DeleteArtist(ctx context.Context, id uint) (*Artist, error) {
	artist, err := utils.FetchModel[Artist](ctx, id)
	if err != nil {
		return nil, errors.New("artist not found")
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Album{}).Where("artist_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("artist has albums")
	}
	if err := db.WithContext(ctx).Model(&BandArtist{}).Where("artist_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("artist belongs to a band")
	}

	if err := db.WithContext(ctx).Delete(artist).Error; err != nil {
		return nil, err
	}
	return artist, nil
}

func GetArtist(ctx context.Context, id uint) (*Artist, error) {
	return utils.FetchModel[Artist](ctx, id)
}

func GetArtists(ctx context.Context, name *string) ([]*Artist, error) {
	db := config.GetDB()
	var results []*Artist

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
