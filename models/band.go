package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/utils"
)

type Band struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:120;not null" json:"name" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BandArtist links an artist to a band. One artist may play in several
// bands, but only once in each.
type BandArtist struct {
	ID       uint `gorm:"primary_key" json:"id"`
	BandId   uint `gorm:"uniqueIndex:idx_band_artist,priority:1;not null" json:"band_id"`
	ArtistId uint `gorm:"uniqueIndex:idx_band_artist,priority:2;not null" json:"artist_id"`
}

type NewBand struct {
	Name string `json:"name" binding:"required,max=120" validate:"required,max=120"`
}

func CreateBand(ctx context.Context, input *NewBand) (*Band, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUniqueName[Band](ctx, "name", input.Name, 0); err != nil {
		return nil, err
	}

	band := Band{Name: strings.TrimSpace(input.Name)}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&band).Error; err != nil {
		if utils.IsDuplicateEntry(err) {
			return nil, errors.New("band name already in use")
		}
		return nil, err
	}
	return &band, nil
}

func UpdateBand(ctx context.Context, id uint, input *NewBand) (*Band, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUniqueName[Band](ctx, "name", input.Name, id); err != nil {
		return nil, err
	}

	band, err := utils.FetchModel[Band](ctx, id)
	if err != nil {
		return nil, errors.New("band not found")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(band).Update("name", strings.TrimSpace(input.Name)).Error; err != nil {
		return nil, err
	}
	return band, nil
}

func DeleteBand(ctx context.Context, id uint) (*Band, error) {
	band, err := utils.FetchModel[Band](ctx, id)
	if err != nil {
		return nil, errors.New("band not found")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("band_id = ?", id).Delete(&BandArtist{}).Error; err != nil {
			return err
		}
		return tx.Delete(band).Error
	})
	if err != nil {
		return nil, err
	}
	return band, nil
}

func AddBandArtist(ctx context.Context, bandId uint, artistId uint) error {
	if _, err := utils.FetchModel[Band](ctx, bandId); err != nil {
		return errors.New("band not found")
	}
	if _, err := utils.FetchModel[Artist](ctx, artistId); err != nil {
		return errors.New("artist not found")
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&BandArtist{BandId: bandId, ArtistId: artistId}).Error
	if err != nil {
		if utils.IsDuplicateEntry(err) {
			return errors.New("artist already in band")
		}
		return err
	}
	return nil
}

func RemoveBandArtist(ctx context.Context, bandId uint, artistId uint) error {
	db := config.GetDB()
	result := db.WithContext(ctx).
		Where("band_id = ? AND artist_id = ?", bandId, artistId).
		Delete(&BandArtist{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("artist not in band")
	}
	return nil
}

func GetBandArtists(ctx context.Context, bandId uint) ([]*Artist, error) {
	db := config.GetDB()
	var results []*Artist
	err := db.WithContext(ctx).
		Joins("JOIN band_artists ON band_artists.artist_id = artists.id").
		Where("band_artists.band_id = ?", bandId).
		Order("artists.name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetBands(ctx context.Context, name *string) ([]*Band, error) {
	db := config.GetDB()
	var results []*Band

	dbCtx := db.WithContext(ctx)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
