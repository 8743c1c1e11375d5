package dto

import "time"

type LocationQueryRequest struct {
	Phone     string `json:"phone" validate:"required,cnphone"`
	MapSource string `json:"mapSource"`
}

type SaveLocationRequest struct {
	UserID    int64   `json:"userId" validate:"required"`
	Phone     string  `json:"phone" validate:"required,cnphone"`
	Latitude  float64 `json:"latitude" validate:"required,latitude"`
	Longitude float64 `json:"longitude" validate:"required,longitude"`
	Accuracy  float64 `json:"accuracy" validate:"gte=0"`
}

type SaveLocationResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	LocationID int64  `json:"locationId"`
}

type LocationResponse struct {
	ID        int64     `json:"id,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Position of a fix on a specific provider's map.
type DisplayPosition struct {
	MapSource string  `json:"mapSource"`
	System    string  `json:"system"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

type LatestLocationResponse struct {
	Success  bool             `json:"success"`
	Location LocationResponse `json:"location"`
	Display  *DisplayPosition `json:"display,omitempty"`
}

type ListLocationsResponse struct {
	Success   bool               `json:"success"`
	Count     int                `json:"count"`
	Locations []LocationResponse `json:"locations"`
}

type TrackResponse struct {
	Success      bool    `json:"success"`
	Phone        string  `json:"phone"`
	MapSource    string  `json:"mapSource"`
	System       string  `json:"system"`
	Points       int     `json:"points"`
	LengthMeters float64 `json:"length_m"`
	Track        any     `json:"track"`
}
