package models

import (
	"encoding/json"
	"time"
)

// TuViChart is a persisted astrology chart. ChartData holds the full wheel
// (houses, stars, aspect scores) as produced by the chart generator.
type TuViChart struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	BirthDate   time.Time       `json:"birth_date"`
	BirthHour   int             `json:"birth_hour"`
	Gender      string          `json:"gender"`
	BirthPlace  *string         `json:"birth_place"`
	IsLunar     bool            `json:"is_lunar"`
	Can         string          `json:"can"`
	Chi         string          `json:"chi"`
	MenhElement string          `json:"menh_element"`
	ChartData   json.RawMessage `json:"chart_data"`
	AIReading   *string         `json:"ai_reading,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FaceReading is a saved physiognomy analysis: the uploaded photo plus the
// landmark metrics and AI interpretation.
type FaceReading struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	ImageURL  string          `json:"image_url"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}
