package regionalsync

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/seplag/artistalbum_backend/models"
	"github.com/seplag/artistalbum_backend/utils"
)

// applyMutations executes a plan inside one transaction so a pass is
// all-or-nothing. Retires target specific row ids and are idempotent;
// creates always insert active rows.
func applyMutations(ctx context.Context, db *gorm.DB, logger *logrus.Logger, mutations []Mutation) error {
	if len(mutations) == 0 {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range mutations {
			switch m.Kind {
			case MutationRetire:
				affected, err := models.RetireRegionalByID(ctx, tx, m.RetireId)
				if err != nil {
					return fmt.Errorf("retire regional %d: %w", m.RetireId, err)
				}
				logger.WithFields(logrus.Fields{
					"regional_id": m.RetireId,
					"affected":    affected,
				}).Info("regional retired")

			case MutationCreate:
				row := models.Regional{
					Name:         m.Name,
					Active:       utils.NewTrue(),
					ExternalCode: m.ExternalCode,
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("create regional %q: %w", m.Name, err)
				}
				fields := logrus.Fields{"regional_id": row.ID, "name": row.Name}
				if row.ExternalCode != nil {
					fields["external_code"] = *row.ExternalCode
				}
				logger.WithFields(fields).Info("regional created")

			default:
				return fmt.Errorf("unknown mutation kind %q", m.Kind)
			}
		}
		return nil
	})
}
