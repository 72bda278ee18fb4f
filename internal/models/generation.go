package models

import "time"

// AnalysisResult is the tempo/key estimate for one reference track
type AnalysisResult struct {
	Tempo float64 `json:"tempo"`
	Key   string  `json:"key"`
}

// GenerationRecord stores one generated pattern in the history table
type GenerationRecord struct {
	ID         string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	Track      string    `gorm:"index" json:"track"`
	Key        string    `gorm:"not null" json:"key"`
	Tempo      float64   `gorm:"not null" json:"tempo"`
	Part       string    `gorm:"not null" json:"part"`
	Template   string    `json:"template,omitempty"`
	Seed       *int64    `json:"seed,omitempty"`
	NoteCount  int       `gorm:"not null" json:"note_count"`
	RestCount  int       `gorm:"not null" json:"rest_count"`
	TotalBeats float64   `gorm:"not null" json:"total_beats"`
	ExportURI  string    `json:"export_uri,omitempty"`
}
