package dto

type Point struct {
	Lng float64 `json:"lng" validate:"longitude"`
	Lat float64 `json:"lat" validate:"latitude"`
}

// Either From/To (reference system names) or MapSource with an optional
// Direction ("to" converts WGS-84 for display, "from" converts back).
type ConvertRequest struct {
	Longitude float64 `json:"longitude" validate:"longitude"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	MapSource string  `json:"mapSource"`
	Direction string  `json:"direction" validate:"omitempty,oneof=to from"`
}

type ConvertResponse struct {
	Success   bool    `json:"success"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	From      string  `json:"from"`
	To        string  `json:"to"`
}

type DistanceRequest struct {
	From *Point `json:"from" validate:"required"`
	To   *Point `json:"to" validate:"required"`
}

type DistanceResponse struct {
	Success bool    `json:"success"`
	Meters  float64 `json:"meters"`
}
