package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/utils"
)

type Album struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	ArtistId    uint      `gorm:"index;not null" json:"artist_id"`
	Title       string    `gorm:"index;size:200;not null" json:"title"`
	ReleaseYear int       `json:"release_year"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAlbum struct {
	ArtistId    uint   `json:"artist_id" binding:"required" validate:"required"`
	Title       string `json:"title" binding:"required,max=200" validate:"required,max=200"`
	ReleaseYear int    `json:"release_year" binding:"omitempty,gte=1900" validate:"omitempty,gte=1900"`
}

func (input *NewAlbum) validate(ctx context.Context, id uint) error {
	if err := validate.Struct(input); err != nil {
		return err
	}
	if _, err := utils.FetchModel[Artist](ctx, input.ArtistId); err != nil {
		return errors.New("artist not found")
	}

	// The same artist cannot carry two albums with the same title.
	db := config.GetDB()
	var count int64
	dbCtx := db.WithContext(ctx).Model(&Album{}).
		Where("artist_id = ? AND LOWER(title) = ?", input.ArtistId, strings.ToLower(strings.TrimSpace(input.Title)))
	if id > 0 {
		dbCtx = dbCtx.Where("id <> ?", id)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("album title already in use for this artist")
	}
	return nil
}

func CreateAlbum(ctx context.Context, input *NewAlbum) (*Album, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	album := Album{
		ArtistId:    input.ArtistId,
		Title:       strings.TrimSpace(input.Title),
		ReleaseYear: input.ReleaseYear,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&album).Error; err != nil {
		return nil, err
	}
	return &album, nil
}

func UpdateAlbum(ctx context.Context, id uint, input *NewAlbum) (*Album, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	album, err := utils.FetchModel[Album](ctx, id)
	if err != nil {
		return nil, errors.New("album not found")
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(album).Updates(map[string]interface{}{
		"ArtistId":    input.ArtistId,
		"Title":       strings.TrimSpace(input.Title),
		"ReleaseYear": input.ReleaseYear,
	}).Error
	if err != nil {
		return nil, err
	}
	return album, nil
}

func DeleteAlbum(ctx context.Context, id uint) (*Album, error) {
	album, err := utils.FetchModel[Album](ctx, id)
	if err != nil {
		return nil, errors.New("album not found")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(album).Error; err != nil {
		return nil, err
	}
	return album, nil
}

func GetAlbum(ctx context.Context, id uint) (*Album, error) {
	return utils.FetchModel[Album](ctx, id)
}

func GetAlbumsByArtist(ctx context.Context, artistId uint) ([]*Album, error) {
	db := config.GetDB()
	var results []*Album
	err := db.WithContext(ctx).
		Where("artist_id = ?", artistId).
		Order("release_year, title").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
