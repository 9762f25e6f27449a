package domain

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsSet reports whether c differs from the (0,0) "no location" sentinel.
func (c Coordinates) IsSet() bool { return c.Lat != 0 || c.Lng != 0 }

type Location struct {
	Lat     float64 `json:"lat" dynamodbav:"lat"`
	Lng     float64 `json:"lng" dynamodbav:"lng"`
	Address string  `json:"address" dynamodbav:"address"`
}

func (l Location) Coordinates() Coordinates { return Coordinates{Lat: l.Lat, Lng: l.Lng} }

func (l Location) IsSet() bool { return l.Coordinates().IsSet() }

var (
	// DefaultPickCenter is the world view shown by the map picker before any location is known.
	DefaultPickCenter = Coordinates{Lat: 20, Lng: 0}
	// DefaultMapCenter centers the request map when no pin has a location.
	DefaultMapCenter = Coordinates{Lat: 20.5937, Lng: 78.9629}
)

// Geolocation failure codes reported by a device.
const (
	GeoPermissionDenied    = "permission_denied"
	GeoPositionUnavailable = "position_unavailable"
	GeoTimeout             = "timeout"
	GeoUnsupported         = "unsupported"
)

// PositionReport is the outcome of a device geolocation attempt, or a manual
// map pick when Source is "map".
type PositionReport struct {
	Source string   `json:"source"` // "device" | "map"
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
	Error  string   `json:"error,omitempty"`
}
