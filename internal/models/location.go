package models

import "time"

// PermissionState represents the platform-reported location permission status.
type PermissionState string

const (
	PermissionUndetermined PermissionState = "undetermined"
	PermissionGranted      PermissionState = "granted"
	PermissionDenied       PermissionState = "denied"
)

// Coordinates is a single geographic position reading.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinates fall within geographic ranges.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// LocationRecord is the durable snapshot of the last successful position
// acquisition. Address is nil when reverse geocoding did not produce a result.
type LocationRecord struct {
	Coordinates Coordinates `json:"coordinates"`
	Address     *string     `json:"address"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
