package listenmoe

import "fmt"

// Station identifies one of the LISTEN.moe broadcast channels.
type Station string

const (
	StationJPop Station = "jpop"
	StationKPop Station = "kpop"
)

// Stations lists all known stations in display order.
var Stations = []Station{StationJPop, StationKPop}

// ParseStation converts a config/flag value into a Station.
func ParseStation(s string) (Station, error) {
	switch Station(s) {
	case StationJPop, StationKPop:
		return Station(s), nil
	default:
		return "", fmt.Errorf("listenmoe: unknown station %q", s)
	}
}

// StreamURL returns the audio stream endpoint for the station.
func (s Station) StreamURL() string {
	if s == StationKPop {
		return "https://listen.moe/kpop/stream"
	}
	return "https://listen.moe/stream"
}

// GatewayURL returns the metadata gateway endpoint for the station.
func (s Station) GatewayURL() string {
	if s == StationKPop {
		return "wss://listen.moe/kpop/gateway_v2"
	}
	return "wss://listen.moe/gateway_v2"
}

func (s Station) String() string {
	return string(s)
}
