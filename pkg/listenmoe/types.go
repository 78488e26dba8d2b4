package listenmoe

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CDN base paths for image name resolution. The gateway sends bare file
// names; absolute URLs are built by prepending these.
const (
	AlbumCoverBase  = "https://cdn.listen.moe/covers/"
	ArtistImageBase = "https://cdn.listen.moe/artists/"
)

// Sentinels used when the payload omits a title or any artist name.
const (
	UnknownArtist = "Unknown artist"
	UnknownTitle  = "unknown title"
)

// TrackInfo describes one playing item and its timing. Values are never
// mutated after construction; ordering between two tracks is defined
// solely by StartTime.
type TrackInfo struct {
	Artist      string    // Joined display names, or UnknownArtist
	Title       string    // Display title, or UnknownTitle
	AlbumCover  string    // Absolute URL, empty if none
	ArtistImage string    // Absolute URL, empty if none
	StartTime   time.Time // When the track began on the live broadcast (UTC)
	Duration    int       // Seconds; 0 means unknown
}

// End returns the end of the track's playing window, or false when the
// duration is unknown.
func (t TrackInfo) End() (time.Time, bool) {
	if t.Duration <= 0 {
		return time.Time{}, false
	}
	return t.StartTime.Add(time.Duration(t.Duration) * time.Second), true
}

// trackPayload mirrors the TRACK_UPDATE dispatch body.
type trackPayload struct {
	Song struct {
		Title   *string `json:"title"`
		Artists []struct {
			Name  *string `json:"name"`
			Image *string `json:"image"`
		} `json:"artists"`
		Albums []struct {
			Image *string `json:"image"`
		} `json:"albums"`
		Duration *int `json:"duration"`
	} `json:"song"`
	StartTime string `json:"startTime"`
}

// DecodeTrackUpdate decodes a TRACK_UPDATE dispatch payload. A payload
// with an unparseable startTime is rejected entirely; a track must never
// surface with a fabricated timestamp.
func DecodeTrackUpdate(d json.RawMessage) (TrackInfo, error) {
	var p trackPayload
	if err := json.Unmarshal(d, &p); err != nil {
		return TrackInfo{}, fmt.Errorf("listenmoe: decode track update: %w", err)
	}

	start, err := ParseTimestamp(p.StartTime)
	if err != nil {
		return TrackInfo{}, fmt.Errorf("listenmoe: track update startTime: %w", err)
	}

	info := TrackInfo{
		Title:     UnknownTitle,
		Artist:    UnknownArtist,
		StartTime: start,
	}
	if p.Song.Title != nil {
		info.Title = *p.Song.Title
	}
	if p.Song.Duration != nil {
		info.Duration = *p.Song.Duration
	}

	if len(p.Song.Artists) > 0 {
		names := make([]string, 0, len(p.Song.Artists))
		for _, a := range p.Song.Artists {
			if a.Name != nil {
				names = append(names, *a.Name)
			}
		}
		info.Artist = strings.Join(names, ", ")
		if first := p.Song.Artists[0].Image; first != nil {
			info.ArtistImage = ArtistImageBase + *first
		}
	}

	if len(p.Song.Albums) > 0 && p.Song.Albums[0].Image != nil {
		info.AlbumCover = AlbumCoverBase + *p.Song.Albums[0].Image
	}

	return info, nil
}

// ParseTimestamp parses the gateway's RFC 3339 timestamp format.
// Fractional seconds are optional; sub-second precision is preserved.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
