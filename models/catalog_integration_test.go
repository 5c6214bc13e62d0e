package models_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/seplag/artistalbum_backend/config"
	"github.com/seplag/artistalbum_backend/models"
)

func TestCatalogLifecycle(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "artistalbum_test")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	artist, err := models.CreateArtist(ctx, &models.NewArtist{Name: "Elza Soares"})
	if err != nil {
		t.Fatalf("CreateArtist: %v", err)
	}

	// Artist names are unique, case-insensitively.
	if _, err := models.CreateArtist(ctx, &models.NewArtist{Name: "elza soares"}); err == nil {
		t.Fatal("duplicate artist name must be rejected")
	}

	album, err := models.CreateAlbum(ctx, &models.NewAlbum{
		ArtistId:    artist.ID,
		Title:       "A Mulher do Fim do Mundo",
		ReleaseYear: 2015,
	})
	if err != nil {
		t.Fatalf("CreateAlbum: %v", err)
	}

	// Same title for the same artist is rejected.
	if _, err := models.CreateAlbum(ctx, &models.NewAlbum{
		ArtistId: artist.ID,
		Title:    "a mulher do fim do mundo",
	}); err == nil {
		t.Fatal("duplicate album title for the artist must be rejected")
	}

	// An artist with albums cannot be deleted.
	if _, err := models.DeleteArtist(ctx, artist.ID); err == nil {
		t.Fatal("deleting an artist with albums must fail")
	}

	band, err := models.CreateBand(ctx, &models.NewBand{Name: "Os Mutantes"})
	if err != nil {
		t.Fatalf("CreateBand: %v", err)
	}
	if err := models.AddBandArtist(ctx, band.ID, artist.ID); err != nil {
		t.Fatalf("AddBandArtist: %v", err)
	}
	if err := models.AddBandArtist(ctx, band.ID, artist.ID); err == nil {
		t.Fatal("adding the same artist twice must fail")
	}

	members, err := models.GetBandArtists(ctx, band.ID)
	if err != nil {
		t.Fatalf("GetBandArtists: %v", err)
	}
	if len(members) != 1 || members[0].ID != artist.ID {
		t.Fatalf("unexpected band members: %+v", members)
	}

	// Cleanup path: album gone, membership gone, artist deletable.
	if _, err := models.DeleteAlbum(ctx, album.ID); err != nil {
		t.Fatalf("DeleteAlbum: %v", err)
	}
	if err := models.RemoveBandArtist(ctx, band.ID, artist.ID); err != nil {
		t.Fatalf("RemoveBandArtist: %v", err)
	}
	if _, err := models.DeleteArtist(ctx, artist.ID); err != nil {
		t.Fatalf("DeleteArtist: %v", err)
	}
}
