package meta

import (
	"sync/atomic"
	"time"

	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

// scheduleSwitch arranges for track to be emitted on out when the
// delayed listener reaches its start: start + lag. If that instant is
// already past, the emit happens immediately.
//
// There are no timer handles and no explicit cancellation. The emit
// happens only if the shared generation counter still equals expect at
// fire time; every later event (new track, pause, resume, stop) bumps
// the counter and thereby silently invalidates all earlier waits. Many
// waits may be in flight at once; at most the latest one fires.
func scheduleSwitch(out chan<- listenmoe.TrackInfo, track listenmoe.TrackInfo, lag time.Duration, gen *atomic.Uint64, expect uint64) {
	go func() {
		target := track.StartTime.Add(lag)
		if wait := time.Until(target); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			<-timer.C
		}
		if gen.Load() == expect {
			out <- track
		}
	}()
}
