package regionalsync

import (
	"context"

	"gorm.io/gorm"

	"github.com/seplag/artistalbum_backend/models"
)

// snapshot indexes the active rows for one pass. It is rebuilt from
// the database on every pass and thrown away afterwards.
type snapshot struct {
	rows   []models.Regional
	byCode map[int]*models.Regional
	byName map[string]*models.Regional
}

// buildSnapshot indexes rows by external code and by name. Rows are
// expected in id order; when two active rows collide on a key the
// lowest id wins and later rows are left out of that index, so the
// reconciler only ever joins against one of them.
func buildSnapshot(rows []models.Regional) *snapshot {
	snap := &snapshot{
		rows:   rows,
		byCode: make(map[int]*models.Regional, len(rows)),
		byName: make(map[string]*models.Regional, len(rows)),
	}
	for i := range rows {
		row := &rows[i]
		if row.ExternalCode != nil {
			if _, taken := snap.byCode[*row.ExternalCode]; !taken {
				snap.byCode[*row.ExternalCode] = row
			}
		}
		if _, taken := snap.byName[row.Name]; !taken {
			snap.byName[row.Name] = row
		}
	}
	return snap
}

func loadSnapshot(ctx context.Context, db *gorm.DB) (*snapshot, error) {
	rows, err := models.FindAllActiveRegionals(ctx, db)
	if err != nil {
		return nil, err
	}
	return buildSnapshot(rows), nil
}
