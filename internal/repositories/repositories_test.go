package repositories

import (
	"database/sql"
	"testing"
	"time"

	"daylist/internal/models"
	"daylist/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func testVideo(id string) models.Video {
	return models.Video{
		ID:           id,
		Title:        "Video " + id,
		ChannelTitle: "Test Channel",
		PublishedAt:  time.Date(2026, 8, 29, 5, 0, 0, 0, time.UTC),
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "playlists")
	if err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}
	second, err := NextSequence(db, "playlists")
	if err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}

	if second != first+1 {
		t.Errorf("sequence did not increment: first=%d second=%d", first, second)
	}
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		dto := models.Playlist{ID: "remote1", Title: "Daily Mix", ItemCount: 5}
		playlist := models.NewPersistedPlaylist(0, "remote1", dto, "private")

		if err := repo.Create(playlist); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if playlist.ID() == "" {
			t.Fatal("Create() did not assign an ID")
		}

		got, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Title() != "Daily Mix" || got.RemoteID() != "remote1" || got.ItemCount() != 5 {
			t.Errorf("Get() = {%s %s %d}, want {Daily Mix remote1 5}",
				got.Title(), got.RemoteID(), got.ItemCount())
		}
	})

	t.Run("GetByRemoteID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)

		got, err := repo.GetByRemoteID("missing")
		if err != nil {
			t.Fatalf("GetByRemoteID() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetByRemoteID(missing) = %v, want nil", got)
		}

		dto := models.Playlist{ID: "remote1", Title: "Daily Mix"}
		if err := repo.Create(models.NewPersistedPlaylist(0, "remote1", dto, "private")); err != nil {
			t.Fatal(err)
		}

		got, err = repo.GetByRemoteID("remote1")
		if err != nil {
			t.Fatalf("GetByRemoteID() error = %v", err)
		}
		if got == nil || got.Title() != "Daily Mix" {
			t.Errorf("GetByRemoteID() = %v, want the created playlist", got)
		}
	})

	t.Run("duplicate remote ID fails", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		dto := models.Playlist{ID: "remote1", Title: "Daily Mix"}

		if err := repo.Create(models.NewPersistedPlaylist(0, "remote1", dto, "private")); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewPersistedPlaylist(0, "remote1", dto, "private")); err == nil {
			t.Error("creating a second playlist with the same remote_id should fail")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		dto := models.Playlist{ID: "remote1", Title: "Daily Mix", ItemCount: 1}
		playlist := models.NewPersistedPlaylist(0, "remote1", dto, "private")
		if err := repo.Create(playlist); err != nil {
			t.Fatal(err)
		}

		playlist.SetItemCount(9)
		if err := repo.Update(playlist); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.ItemCount() != 9 {
			t.Errorf("ItemCount = %d, want 9", got.ItemCount())
		}
	})

	t.Run("Delete is soft", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		dto := models.Playlist{ID: "remote1", Title: "Daily Mix"}
		playlist := models.NewPersistedPlaylist(0, "remote1", dto, "private")
		if err := repo.Create(playlist); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(playlist.ID()); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := repo.Get(playlist.ID()); err == nil {
			t.Error("Get() after Delete() should fail")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM playlists WHERE deleted_at IS NOT NULL").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("soft-deleted row count = %d, want 1", count)
		}
	})
}

func TestItemRepository(t *testing.T) {
	t.Run("Create and Exists", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewItemRepository(db)
		item := models.NewPlaylistItem(0, "pl1", testVideo("vid1"))

		if err := repo.Create(item); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		exists, err := repo.Exists("pl1", "vid1")
		if err != nil {
			t.Fatalf("Exists() error = %v", err)
		}
		if !exists {
			t.Error("Exists() = false for a recorded pair")
		}

		exists, err = repo.Exists("pl1", "other")
		if err != nil {
			t.Fatal(err)
		}
		if exists {
			t.Error("Exists() = true for an unrecorded pair")
		}
	})

	t.Run("duplicate pair fails", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewItemRepository(db)
		if err := repo.Create(models.NewPlaylistItem(0, "pl1", testVideo("vid1"))); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewPlaylistItem(0, "pl1", testVideo("vid1"))); err == nil {
			t.Error("creating a duplicate (playlist, video) pair should fail")
		}
	})

	t.Run("List by playlist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewItemRepository(db)
		for _, pair := range []struct{ pl, vid string }{
			{"pl1", "a"}, {"pl1", "b"}, {"pl2", "c"},
		} {
			if err := repo.Create(models.NewPlaylistItem(0, pair.pl, testVideo(pair.vid))); err != nil {
				t.Fatal(err)
			}
		}

		items, err := repo.List(map[string]any{"playlist_id": "pl1"})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(items) != 2 {
			t.Errorf("List(pl1) returned %d items, want 2", len(items))
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 3 {
			t.Errorf("List() returned %d items, want 3", len(all))
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewItemRepository(db)
		if err := repo.Create(models.NewPlaylistItem(0, "", testVideo("vid1"))); err == nil {
			t.Error("Create() with empty playlist_id should fail validation")
		}
	})
}

func TestItemLedgerAdapter(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ledger := NewItemLedgerAdapter(NewItemRepository(db))

	recorded, err := ledger.Contains("pl1", "vid1")
	if err != nil {
		t.Fatalf("Contains() error = %v", err)
	}
	if recorded {
		t.Error("Contains() = true on an empty ledger")
	}

	if err := ledger.Record("pl1", testVideo("vid1")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	recorded, err = ledger.Contains("pl1", "vid1")
	if err != nil {
		t.Fatal(err)
	}
	if !recorded {
		t.Error("Contains() = false after Record()")
	}

	// Recording the same pair again is a no-op, not an error
	if err := ledger.Record("pl1", testVideo("vid1")); err != nil {
		t.Errorf("Record() of an existing pair error = %v, want nil", err)
	}
}

func TestRunRepository(t *testing.T) {
	window := func() (time.Time, time.Time) {
		end := time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC)
		return end.Add(-24 * time.Hour), end
	}

	t.Run("Create, Complete, Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		start, end := window()
		run := models.NewSyncRun(0, "pl1", start, end)

		if err := repo.Create(run); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		run.Complete(2, 1, 0)
		if err := repo.Update(run); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status() != models.RunStatusCompleted {
			t.Errorf("Status = %s, want completed", got.Status())
		}
		if got.Inserted() != 2 || got.Skipped() != 1 || got.Failed() != 0 {
			t.Errorf("counts = {%d %d %d}, want {2 1 0}", got.Inserted(), got.Skipped(), got.Failed())
		}
	})

	t.Run("partial status when items failed", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		start, end := window()
		run := models.NewSyncRun(0, "pl1", start, end)
		if err := repo.Create(run); err != nil {
			t.Fatal(err)
		}

		run.Complete(1, 0, 2)
		if err := repo.Update(run); err != nil {
			t.Fatal(err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Status() != models.RunStatusPartial {
			t.Errorf("Status = %s, want partial", got.Status())
		}
	})

	t.Run("failed status records the message", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		start, end := window()
		run := models.NewSyncRun(0, "pl1", start, end)
		if err := repo.Create(run); err != nil {
			t.Fatal(err)
		}

		run.Fail("API quota exceeded")
		if err := repo.Update(run); err != nil {
			t.Fatal(err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Status() != models.RunStatusFailed {
			t.Errorf("Status = %s, want failed", got.Status())
		}
		if got.ErrorMessage() != "API quota exceeded" {
			t.Errorf("ErrorMessage = %q, want the failure message", got.ErrorMessage())
		}
	})

	t.Run("Latest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)

		got, err := repo.Latest("")
		if err != nil {
			t.Fatalf("Latest() error = %v", err)
		}
		if got != nil {
			t.Errorf("Latest() on empty table = %v, want nil", got)
		}

		start, end := window()
		first := models.NewSyncRun(0, "pl1", start, end)
		if err := repo.Create(first); err != nil {
			t.Fatal(err)
		}
		second := models.NewSyncRun(0, "pl2", start, end)
		if err := repo.Create(second); err != nil {
			t.Fatal(err)
		}

		got, err = repo.Latest("")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.ID() != second.ID() {
			t.Errorf("Latest() = %v, want the most recent run", got)
		}

		got, err = repo.Latest("pl1")
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.ID() != first.ID() {
			t.Errorf("Latest(pl1) = %v, want the pl1 run", got)
		}
	})
}
