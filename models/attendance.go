package models

import "time"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FenceConfig describes the single geofence the deployment validates
// attendance against. Loaded once at startup and never mutated.
type FenceConfig struct {
	Center       Coordinate `json:"center"`
	RadiusMeters float64    `json:"radius_meters"`
}

// Method tells how an attendance record was produced.
type Method string

const (
	MethodManual   Method = "manual"   // explicit override after an out-of-range check
	MethodGeofence Method = "geofence" // interactive check-in confirmed inside the fence
	MethodAuto     Method = "auto"     // background scheduler tick
)

// AttendanceRecord is one entry in the append-only attendance ledger.
// Records are never mutated or deleted individually; the only removal
// is the administrative bulk clear.
type AttendanceRecord struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	DisplayName  string     `json:"display_name"`
	TimestampUTC time.Time  `json:"timestamp"`
	Location     Coordinate `json:"location"`
	Method       Method     `json:"method"`
}

type CheckInRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type ManualOverrideRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

type LocationPingRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

type PermissionRequest struct {
	Granted *bool `json:"granted" binding:"required"`
}

type AutoStartRequest struct {
	IntervalSec int `json:"interval_sec"`
	CooldownSec int `json:"cooldown_sec"`
}

type PurgeRequest struct {
	Confirm bool `json:"confirm"`
}
