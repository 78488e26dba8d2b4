package meta

import (
	"time"

	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

// historyCap bounds the per-session track ring. Oldest entries are
// evicted first.
const historyCap = 32

// history is a bounded, time-ascending ring of recently announced
// tracks. It is owned exclusively by the session loop; scheduled
// switches only ever see copies handed out at schedule time.
type history struct {
	tracks []listenmoe.TrackInfo
	now    func() time.Time // overridable for tests
}

func newHistory() *history {
	return &history{
		tracks: make([]listenmoe.TrackInfo, 0, historyCap),
		now:    time.Now,
	}
}

// record appends a track, evicting the oldest entry when full. Tracks
// arrive in broadcast order from a single session and are never
// reordered.
func (h *history) record(t listenmoe.TrackInfo) {
	if len(h.tracks) == historyCap {
		h.tracks = append(h.tracks[:0], h.tracks[1:]...)
	}
	h.tracks = append(h.tracks, t)
}

func (h *history) len() int {
	return len(h.tracks)
}

// playbackNow converts wall-clock time into listener time: what the
// delayed listener is hearing right now. The bool is false when the lag
// is nonsensical (negative, or larger than time since epoch).
func (h *history) playbackNow(lag time.Duration) (time.Time, bool) {
	if lag < 0 {
		return time.Time{}, false
	}
	p := h.now().Add(-lag)
	if p.Before(time.Unix(0, 0)) {
		return time.Time{}, false
	}
	return p, true
}

// pickForOffset returns the track that should be showing for a listener
// delayed by lag. Tracks with a known duration are matched against their
// [start, start+duration) window, newest first. When no window matches,
// the newest track that started before playback time is used; that
// fallback can pick a stale track if the right one has rotated out of
// the ring.
func (h *history) pickForOffset(lag time.Duration) (listenmoe.TrackInfo, bool) {
	playback, ok := h.playbackNow(lag)
	if !ok {
		return listenmoe.TrackInfo{}, false
	}

	for i := len(h.tracks) - 1; i >= 0; i-- {
		t := h.tracks[i]
		end, known := t.End()
		if !known {
			continue
		}
		if !playback.Before(t.StartTime) && playback.Before(end) {
			return t, true
		}
	}

	for i := len(h.tracks) - 1; i >= 0; i-- {
		if !playback.Before(h.tracks[i].StartTime) {
			return h.tracks[i], true
		}
	}

	return listenmoe.TrackInfo{}, false
}

// earliestFuture returns the track with the smallest start time still
// ahead of playback time. Used to re-arm scheduling after a resume.
func (h *history) earliestFuture(lag time.Duration) (listenmoe.TrackInfo, bool) {
	playback, ok := h.playbackNow(lag)
	if !ok {
		return listenmoe.TrackInfo{}, false
	}

	var best listenmoe.TrackInfo
	found := false
	for _, t := range h.tracks {
		if !playback.Before(t.StartTime) {
			continue
		}
		if !found || t.StartTime.Before(best.StartTime) {
			best = t
			found = true
		}
	}
	return best, found
}
