package meta

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

// control messages delivered from the Controller to the active worker.
type control int

const (
	controlStop control = iota
	controlPause
	controlResume
)

// errStopRequested signals the outer loop that the worker must exit
// without a reconnect attempt.
var errStopRequested = errors.New("meta: stop requested")

const dialTimeout = 10 * time.Second

// session is one physical gateway connection. History is fresh per
// session and owned exclusively by the session loop.
type session struct {
	out     chan<- listenmoe.TrackInfo
	control <-chan control
	lagMS   *atomic.Int64
	gen     *atomic.Uint64
	logger  zerolog.Logger

	hist   *history
	paused bool
}

// runSession dials the gateway and runs one session to completion.
// Returns nil on a normal remote close, errStopRequested when a Stop was
// observed, and any other error as a retry signal for the outer loop.
func runSession(gatewayURL string, out chan<- listenmoe.TrackInfo, ctrl <-chan control, lagMS *atomic.Int64, gen *atomic.Uint64, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, err := listenmoe.Dial(ctx, gatewayURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.Info().Str("url", gatewayURL).Msg("Gateway connected")

	s := &session{
		out:     out,
		control: ctrl,
		lagMS:   lagMS,
		gen:     gen,
		logger:  logger,
		hist:    newHistory(),
	}
	return s.stream(conn)
}

// stream runs the session loop: control handling, heartbeat cadence and
// message dispatch, multiplexed over a reader goroutine so that a
// blocked transport read never delays a control message.
func (s *session) stream(conn *listenmoe.Conn) error {
	msgs := make(chan listenmoe.Envelope)
	readErr := make(chan error, 1)
	quit := make(chan struct{})
	defer close(quit)
	go s.readLoop(conn, msgs, readErr, quit)

	var heartbeat *time.Ticker
	var tick <-chan time.Time
	defer func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
	}()

	awaitingHello := true

	for {
		select {
		case msg, ok := <-s.control:
			if !ok || msg == controlStop {
				// Invalidate any pending scheduled emits before leaving.
				s.gen.Add(1)
				return errStopRequested
			}
			switch msg {
			case controlPause:
				s.logger.Debug().Msg("Pausing metadata")
				s.paused = true
				s.gen.Add(1)
			case controlResume:
				s.logger.Debug().Msg("Resuming metadata")
				s.paused = false
				s.gen.Add(1)
				s.resync()
			}

		case <-tick:
			if err := conn.WriteHeartbeat(); err != nil {
				return err
			}

		case err := <-readErr:
			if errors.Is(err, listenmoe.ErrConnClosed) {
				return nil
			}
			return err

		case env := <-msgs:
			if awaitingHello {
				awaitingHello = false
				if env.Op != listenmoe.OpHello {
					continue // heartbeats stay disabled for this session
				}
				hello, err := listenmoe.DecodeHello(env.D)
				if err != nil || hello.Heartbeat <= 0 {
					continue
				}
				// One immediate heartbeat, then on the learned cadence.
				if err := conn.WriteHeartbeat(); err != nil {
					s.logger.Debug().Err(err).Msg("Initial heartbeat failed")
				}
				heartbeat = time.NewTicker(time.Duration(hello.Heartbeat) * time.Millisecond)
				tick = heartbeat.C
				continue
			}
			s.handle(env)
		}
	}
}

// readLoop feeds decoded envelopes to the session loop. Per-message
// decode failures are skipped; transport errors end the loop.
func (s *session) readLoop(conn *listenmoe.Conn, msgs chan<- listenmoe.Envelope, readErr chan<- error, quit <-chan struct{}) {
	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			var decodeErr *listenmoe.DecodeError
			if errors.As(err, &decodeErr) {
				s.logger.Warn().Err(err).Msg("Skipping malformed gateway message")
				continue
			}
			readErr <- err
			return
		}
		select {
		case msgs <- env:
		case <-quit:
			return
		}
	}
}

// handle dispatches one decoded envelope in the Streaming state.
func (s *session) handle(env listenmoe.Envelope) {
	switch {
	case env.Op == listenmoe.OpHeartbeatAck:
		s.logger.Debug().Msg("Heartbeat acknowledged")

	case env.Op == listenmoe.OpDispatch && env.T == listenmoe.EventTrackUpdate:
		info, err := listenmoe.DecodeTrackUpdate(env.D)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Skipping malformed track update")
			return
		}
		s.logger.Info().
			Str("artist", info.Artist).
			Str("title", info.Title).
			Int("duration", info.Duration).
			Msg("Track update")

		s.hist.record(info)
		if !s.paused {
			id := s.gen.Add(1)
			scheduleSwitch(s.out, info, s.lag(), s.gen, id)
		}

	default:
		// Unknown op or event type: ignore.
	}
}

// resync snaps the consumer to the track that matches buffered playback
// time and arms exactly one future switch from history. Called on Resume.
func (s *session) resync() {
	lag := s.lag()
	if cur, ok := s.hist.pickForOffset(lag); ok {
		s.logger.Debug().
			Str("artist", cur.Artist).
			Str("title", cur.Title).
			Msg("Snapping to buffered track")
		s.out <- cur
	}
	if next, ok := s.hist.earliestFuture(lag); ok {
		id := s.gen.Add(1)
		scheduleSwitch(s.out, next, lag, s.gen, id)
	}
}

func (s *session) lag() time.Duration {
	return time.Duration(s.lagMS.Load()) * time.Millisecond
}
