// Package listenmoe provides a client library for the LISTEN.moe
// metadata gateway.
//
// # Overview
//
// LISTEN.moe pushes "now playing" events over a persistent, TLS-secured
// websocket. This package implements the wire protocol: the station
// endpoints, the envelope format, the hello/heartbeat handshake, and
// decoding of TRACK_UPDATE dispatches into TrackInfo values.
//
// # Quick Start
//
//	conn, err := listenmoe.Dial(ctx, listenmoe.StationJPop.GatewayURL())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	for {
//	    env, err := conn.ReadEnvelope()
//	    if err != nil {
//	        break
//	    }
//	    if env.Op == listenmoe.OpDispatch && env.T == listenmoe.EventTrackUpdate {
//	        track, err := listenmoe.DecodeTrackUpdate(env.D)
//	        ...
//	    }
//	}
//
// # Protocol
//
// Every message is a JSON envelope {op, t?, d}. The server greets with
// op 0 (hello) carrying a heartbeat interval in milliseconds; the client
// answers with {"op":9} immediately and then on that cadence. op 10
// acknowledges a heartbeat. op 1 with t == "TRACK_UPDATE" carries the
// track payload. Anything else is ignored.
//
// Session management (reconnects, pause/resume, playback-lag scheduling)
// lives in internal/meta; this package is transport and codec only.
package listenmoe
