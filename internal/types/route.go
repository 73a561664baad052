package types

// Route is the fastest road route between two points.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	// Destination is the requested destination snapped to the road network.
	Destination Location
}
