// Package meta maintains the connection to the LISTEN.moe metadata
// gateway and republishes "now playing" changes to a consumer channel at
// the moment they become audible to a listener whose playback lags the
// live broadcast.
//
// A Controller owns one background worker running a reconnect loop
// around single gateway sessions. The foreground drives it through
// Start/Pause/Resume/Stop/SetStation; none of these can fail from the
// caller's perspective. The playback lag is read from a shared atomic
// millisecond counter kept current by the audio engine.
package meta

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

const (
	retryDelay      = 5 * time.Second
	shortRetryDelay = time.Second
)

// Controller is the public lifecycle API around the gateway worker.
type Controller struct {
	mu      sync.Mutex
	station listenmoe.Station
	running bool
	ctrl    chan control

	out    chan<- listenmoe.TrackInfo
	lagMS  *atomic.Int64
	gen    atomic.Uint64
	logger zerolog.Logger

	retryDelay      time.Duration
	shortRetryDelay time.Duration
	gatewayURL      func(listenmoe.Station) string
}

// NewController creates a stopped controller. Announced tracks are sent
// on out in display order; the caller must keep receiving from it. lagMS
// is the externally measured playback lag in milliseconds, read at
// schedule and resume time.
func NewController(station listenmoe.Station, out chan<- listenmoe.TrackInfo, lagMS *atomic.Int64, logger zerolog.Logger) *Controller {
	return &Controller{
		station:         station,
		out:             out,
		lagMS:           lagMS,
		logger:          logger.With().Str("component", "meta").Logger(),
		retryDelay:      retryDelay,
		shortRetryDelay: shortRetryDelay,
		gatewayURL:      listenmoe.Station.GatewayURL,
	}
}

// Start spawns the background worker. No-op if already running.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

// Stop asks the worker to exit and marks the controller stopped.
// Idempotent, even if no session is active.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Pause suppresses track emissions until Resume. No-op when stopped.
func (c *Controller) Pause() {
	c.send(controlPause)
}

// Resume re-enables emissions, immediately re-emits the track matching
// buffered playback time and arms the next scheduled switch. No-op when
// stopped; there is no implicit start.
func (c *Controller) Resume() {
	c.send(controlResume)
}

// SetStation swaps the target station, restarting the worker if one is
// running.
func (c *Controller) SetStation(station listenmoe.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		c.station = station
		return
	}
	c.stopLocked()
	c.station = station
	c.startLocked()
}

// Station returns the current target station.
func (c *Controller) Station() listenmoe.Station {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.station
}

// Close stops the controller. It exists so owners can defer teardown
// without leaking the background worker.
func (c *Controller) Close() error {
	c.Stop()
	return nil
}

func (c *Controller) startLocked() {
	if c.running {
		return
	}
	ctrl := make(chan control, 16)
	c.ctrl = ctrl
	c.running = true
	go c.worker(c.station, ctrl)
}

func (c *Controller) stopLocked() {
	if !c.running {
		return
	}
	// A closed control channel reads as Stop on the worker side.
	close(c.ctrl)
	c.ctrl = nil
	c.running = false
}

// send forwards a control message to the active worker without blocking.
func (c *Controller) send(msg control) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	select {
	case c.ctrl <- msg:
	default:
		c.logger.Warn().Int("msg", int(msg)).Msg("Control channel full, dropping message")
	}
}

// worker runs the outer reconnect loop: one session to completion, then
// a retry delay. It never retries immediately, and a Stop wins over any
// queued Pause/Resume.
func (c *Controller) worker(station listenmoe.Station, ctrl <-chan control) {
	logger := c.logger.With().Str("station", station.String()).Logger()
	logger.Info().Msg("Metadata worker started")

	// Whatever happens to be scheduled when the worker dies must never
	// reach the consumer.
	defer c.gen.Add(1)

	for {
		select {
		case msg, ok := <-ctrl:
			if !ok || msg == controlStop {
				logger.Info().Msg("Metadata worker stopped")
				return
			}
		default:
		}

		err := runSession(c.gatewayURL(station), c.out, ctrl, c.lagMS, &c.gen, logger)
		switch {
		case errors.Is(err, errStopRequested):
			logger.Info().Msg("Metadata worker stopped")
			return
		case err != nil:
			logger.Warn().Err(err).Msg("Gateway session failed, retrying")
		default:
			logger.Info().Msg("Gateway closed the connection, retrying")
		}

		if !c.waitRetry(ctrl) {
			logger.Info().Msg("Metadata worker stopped")
			return
		}
	}
}

// waitRetry sleeps out the backoff between sessions. The delay shortens
// when a non-Stop control message is already queued at the check, and
// the wait aborts early only for Stop. Returns false when the worker
// must exit.
func (c *Controller) waitRetry(ctrl <-chan control) bool {
	delay := c.retryDelay
	select {
	case msg, ok := <-ctrl:
		if !ok || msg == controlStop {
			return false
		}
		delay = c.shortRetryDelay
	default:
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return true
		case msg, ok := <-ctrl:
			if !ok || msg == controlStop {
				return false
			}
			// Pause/Resume with no live session: nothing to apply.
		}
	}
}
