package meta

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

func TestScheduleSwitchEmitsAtTarget(t *testing.T) {
	out := make(chan listenmoe.TrackInfo, 1)
	var gen atomic.Uint64

	tr := listenmoe.TrackInfo{
		Title:     "soon",
		StartTime: time.Now().Add(100 * time.Millisecond),
	}
	target := tr.StartTime

	id := gen.Add(1)
	scheduleSwitch(out, tr, 0, &gen, id)

	select {
	case got := <-out:
		if got.Title != "soon" {
			t.Errorf("Title = %q, want %q", got.Title, "soon")
		}
		if remaining := time.Until(target); remaining > 20*time.Millisecond {
			t.Errorf("emitted %v before target", remaining)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled switch never fired")
	}
}

func TestScheduleSwitchPastTargetFiresImmediately(t *testing.T) {
	out := make(chan listenmoe.TrackInfo, 1)
	var gen atomic.Uint64

	tr := listenmoe.TrackInfo{
		Title:     "already playing",
		StartTime: time.Now().Add(-time.Minute),
	}
	id := gen.Add(1)
	scheduleSwitch(out, tr, 0, &gen, id)

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("past-target switch did not fire promptly")
	}
}

func TestScheduleSwitchInvalidatedNeverEmits(t *testing.T) {
	out := make(chan listenmoe.TrackInfo, 1)
	var gen atomic.Uint64

	tr := listenmoe.TrackInfo{
		Title:     "stale",
		StartTime: time.Now().Add(50 * time.Millisecond),
	}
	id := gen.Add(1)
	scheduleSwitch(out, tr, 0, &gen, id)

	// Invalidate before the fire time.
	gen.Add(1)

	select {
	case got := <-out:
		t.Fatalf("invalidated switch emitted %q", got.Title)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestScheduleSwitchLastRequestWins(t *testing.T) {
	out := make(chan listenmoe.TrackInfo, 2)
	var gen atomic.Uint64

	start := time.Now().Add(50 * time.Millisecond)
	first := listenmoe.TrackInfo{Title: "first", StartTime: start}
	second := listenmoe.TrackInfo{Title: "second", StartTime: start}

	scheduleSwitch(out, first, 0, &gen, gen.Add(1))
	scheduleSwitch(out, second, 0, &gen, gen.Add(1))

	select {
	case got := <-out:
		if got.Title != "second" {
			t.Errorf("emitted %q, want %q", got.Title, "second")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no switch fired")
	}

	select {
	case got := <-out:
		t.Fatalf("unexpected second emission %q", got.Title)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestScheduleSwitchLagDelaysTarget(t *testing.T) {
	out := make(chan listenmoe.TrackInfo, 1)
	var gen atomic.Uint64

	// Started 100ms ago on the broadcast, but the listener is 250ms
	// behind: the switch belongs ~150ms in the future.
	tr := listenmoe.TrackInfo{
		Title:     "delayed",
		StartTime: time.Now().Add(-100 * time.Millisecond),
	}
	target := tr.StartTime.Add(250 * time.Millisecond)

	scheduleSwitch(out, tr, 250*time.Millisecond, &gen, gen.Add(1))

	select {
	case <-out:
		if early := time.Until(target); early > 20*time.Millisecond {
			t.Errorf("emitted %v before lag-adjusted target", early)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("lagged switch never fired")
	}
}
