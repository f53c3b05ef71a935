// Package model defines shared data types used across the admin sync client.
//
// Types mirror the JSON payloads of the admin backend's REST and WebSocket
// endpoints.
//
// Conventions:
//   - Periods: "week", "month", "year", "all"
//   - Cache timestamps: int64 milliseconds since Unix epoch
//   - Series: four parallel count series aligned with Labels
package model
