package models

import "time"

type Category struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Instrument struct {
	ID                   string
	Name                 string
	Description          string
	HistoricalBackground string
	CategoryIDs          []string
	ImageURL             string
	VideoURL             *string
	AudioURL             *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Feedback struct {
	ID            string
	UserID        string
	InstrumentID  string
	Body          string
	AdminResponse string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
