package server

//go:generate go tool easyjson models.go

// RegroupRequest is a rectangle gesture, rect is min x, min y, max x, max y.
//
//easyjson:json
type RegroupRequest struct {
	Rect [4]float64 `json:"rect"`
	Mode string     `json:"mode,omitempty"`
}

//easyjson:json
type RegroupResponse struct {
	Anchor   uint64   `json:"anchor"`
	Polygon  uint64   `json:"polygon"`
	Count    int      `json:"count"`
	Removed  []uint64 `json:"removed"`
	Inserted []uint64 `json:"inserted"`
}

//easyjson:json
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
