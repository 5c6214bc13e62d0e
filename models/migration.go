package models

import (
	"log"

	"github.com/seplag/artistalbum_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Regional{}, &RegionalSyncRun{}, &RegionalSyncWarning{},
		&Artist{}, &Album{},
		&Band{}, &BandArtist{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
