package listenmoe

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeTrackUpdate(t *testing.T) {
	payload := `{
		"song": {
			"title": "T",
			"artists": [
				{"name": "A", "image": "a.jpg"},
				{"name": "B"}
			],
			"albums": [{"image": "cover.png"}],
			"duration": 240
		},
		"startTime": "2024-01-01T00:00:00Z"
	}`

	info, err := DecodeTrackUpdate(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("DecodeTrackUpdate: %v", err)
	}

	if info.Artist != "A, B" {
		t.Errorf("Artist = %q, want %q", info.Artist, "A, B")
	}
	if info.Title != "T" {
		t.Errorf("Title = %q, want %q", info.Title, "T")
	}
	if info.Duration != 240 {
		t.Errorf("Duration = %d, want 240", info.Duration)
	}
	if info.AlbumCover != AlbumCoverBase+"cover.png" {
		t.Errorf("AlbumCover = %q", info.AlbumCover)
	}
	if info.ArtistImage != ArtistImageBase+"a.jpg" {
		t.Errorf("ArtistImage = %q", info.ArtistImage)
	}

	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !info.StartTime.Equal(want) {
		t.Errorf("StartTime = %v, want %v", info.StartTime, want)
	}
}

func TestDecodeTrackUpdateSentinels(t *testing.T) {
	payload := `{"song": {}, "startTime": "2024-01-01T00:00:00Z"}`

	info, err := DecodeTrackUpdate(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("DecodeTrackUpdate: %v", err)
	}

	if info.Artist != UnknownArtist {
		t.Errorf("Artist = %q, want sentinel %q", info.Artist, UnknownArtist)
	}
	if info.Title != UnknownTitle {
		t.Errorf("Title = %q, want sentinel %q", info.Title, UnknownTitle)
	}
	if info.Duration != 0 {
		t.Errorf("Duration = %d, want 0 (unknown)", info.Duration)
	}
	if info.AlbumCover != "" || info.ArtistImage != "" {
		t.Errorf("expected no image URLs, got %q and %q", info.AlbumCover, info.ArtistImage)
	}
}

func TestDecodeTrackUpdateBadTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing startTime", `{"song": {"title": "T"}}`},
		{"garbage startTime", `{"song": {"title": "T"}, "startTime": "yesterday-ish"}`},
		{"not json", `{"song":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTrackUpdate(json.RawMessage(tt.payload)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "no fractional seconds",
			input: "2024-01-01T00:00:00Z",
			want:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds preserved",
			input: "2024-06-15T12:30:45.123Z",
			want:  time.Date(2024, 6, 15, 12, 30, 45, 123_000_000, time.UTC),
		},
		{
			name:  "offset normalized to UTC",
			input: "2024-06-15T21:30:45+09:00",
			want:  time.Date(2024, 6, 15, 12, 30, 45, 0, time.UTC),
		},
		{name: "empty", input: "", wantErr: true},
		{name: "date only", input: "2024-01-01", wantErr: true},
		{name: "epoch must not be defaulted", input: "not a time", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimestamp(%q): expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q): %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTimestampRoundTrip(t *testing.T) {
	in := "2024-06-15T12:30:45.123456Z"
	first, err := ParseTimestamp(in)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	second, err := ParseTimestamp(first.Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("round trip changed instant: %v != %v", first, second)
	}
}

func TestTrackInfoEnd(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	withDuration := TrackInfo{StartTime: start, Duration: 240}
	end, ok := withDuration.End()
	if !ok {
		t.Fatal("End: expected window for known duration")
	}
	if want := start.Add(4 * time.Minute); !end.Equal(want) {
		t.Errorf("End = %v, want %v", end, want)
	}

	unknown := TrackInfo{StartTime: start}
	if _, ok := unknown.End(); ok {
		t.Error("End: expected no window for unknown duration")
	}
}
