package track

import "time"

// Track is one venue in the directory.
type Track struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Images    []string  `json:"images"`
	Rating    float64   `json:"rating"`
	PlaceID   string    `json:"placeId"`
	Website   string    `json:"website,omitempty"`
	Logo      string    `json:"logo"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultRadiusMeters is the nearby-search radius when none is given,
// roughly 50 miles.
const DefaultRadiusMeters = 80467.0
