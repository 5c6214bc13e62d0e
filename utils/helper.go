package utils

import (
	"context"
	"errors"
	"strconv"
	"strings"

	mysqlDriver "github.com/go-sql-driver/mysql"

	"github.com/seplag/artistalbum_backend/config"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func IntPtr(n int) *int {
	return &n
}

// IsDuplicateEntry reports whether err is a MySQL duplicate-key error
// (ER_DUP_ENTRY, 1062).
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// FetchModel loads a row by primary key. Returns gorm.ErrRecordNotFound
// untouched so callers can errors.Is on it.
func FetchModel[T any](ctx context.Context, id uint) (*T, error) {
	var result T
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateUniqueName fails when another row of T already uses name on
// the given column, case-insensitively. excludeId skips the row being
// updated (0 for create).
func ValidateUniqueName[T any](ctx context.Context, column string, name string, excludeId uint) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New(column + " is required")
	}

	db := config.GetDB()
	var model T
	var count int64
	dbCtx := db.WithContext(ctx).Model(&model).Where("LOWER("+column+") = ?", strings.ToLower(name))
	if excludeId > 0 {
		dbCtx = dbCtx.Where("id <> ?", excludeId)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New(column + " already in use")
	}
	return nil
}

func ParseUintParam(raw string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.New("invalid id")
	}
	return uint(n), nil
}
