package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Polygon is a closed ring of coordinates: the first point is repeated as the
// last. Holes are not supported.
type Polygon []GeoPoint

// Closed reports whether the ring has at least four points and ends where it starts.
func (p Polygon) Closed() bool {
	return len(p) >= 4 && p[0] == p[len(p)-1]
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
