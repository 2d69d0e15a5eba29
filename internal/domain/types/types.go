// Package types contains common types used across the application
package types

import (
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/trend"
)

// Entry represents a standings row
type Entry struct {
	Rank      int          `json:"rank"`
	PlayerID  string       `json:"player_id"`
	Name      string       `json:"name"`
	Rating    float64      `json:"rating"`
	Deviation float64      `json:"rating_deviation"`
	Trend     trend.Level  `json:"trend"`
	Record    model.Record `json:"record"`
}
