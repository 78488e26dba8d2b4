// Package archive persists every track announced to the listener, so
// the CLI can answer "what is playing" and "what played recently"
// without a live gateway connection.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

// ErrEmpty is returned by Latest when nothing has been archived yet.
var ErrEmpty = errors.New("archive: no tracks recorded")

// Archive is an append-only track log backed by SQLite.
type Archive struct {
	db *sql.DB
}

// Entry is one archived announcement.
type Entry struct {
	ID          int64
	Station     string
	Artist      string
	Title       string
	AlbumCover  string
	ArtistImage string
	StartedAt   time.Time // broadcast start of the track
	Duration    int       // seconds, 0 unknown
	AnnouncedAt time.Time // when the track was surfaced to the listener
}

// Open creates or opens the archive database at dbPath.
func Open(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps in-memory databases consistent and is
	// plenty for this write rate.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			station TEXT NOT NULL,
			artist TEXT NOT NULL,
			title TEXT NOT NULL,
			album_cover TEXT,
			artist_image TEXT,
			started_at INTEGER NOT NULL,
			duration INTEGER NOT NULL DEFAULT 0,
			announced_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_announced_at ON tracks(announced_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Add records one announced track.
func (a *Archive) Add(ctx context.Context, station listenmoe.Station, track listenmoe.TrackInfo) (int64, error) {
	query := `
		INSERT INTO tracks (station, artist, title, album_cover, artist_image, started_at, duration, announced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := a.db.ExecContext(ctx, query,
		station.String(),
		track.Artist,
		track.Title,
		track.AlbumCover,
		track.ArtistImage,
		track.StartTime.Unix(),
		track.Duration,
		time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add track: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns up to limit entries, most recently announced first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, station, artist, title, album_cover, artist_image, started_at, duration, announced_at
		FROM tracks
		ORDER BY announced_at DESC, id DESC
		LIMIT ?
	`
	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var cover, image sql.NullString
		var startedAt, announcedAt int64
		if err := rows.Scan(&e.ID, &e.Station, &e.Artist, &e.Title, &cover, &image, &startedAt, &e.Duration, &announcedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		e.AlbumCover = cover.String
		e.ArtistImage = image.String
		e.StartedAt = time.Unix(startedAt, 0).UTC()
		e.AnnouncedAt = time.Unix(announcedAt, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Latest returns the most recently announced track.
func (a *Archive) Latest(ctx context.Context) (Entry, error) {
	entries, err := a.Recent(ctx, 1)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return entries[0], nil
}

// Cleanup deletes entries announced before the retention window and
// returns the number removed.
func (a *Archive) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	result, err := a.db.ExecContext(ctx, `DELETE FROM tracks WHERE announced_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}
	return result.RowsAffected()
}
