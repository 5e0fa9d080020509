package models

import "time"

// Photo is a geotagged image attached to an inspection object.
type Photo struct {
	ID           int       `json:"id"`
	InspectionID int       `json:"inspection_id"`
	ObjectID     int       `json:"object_id"`
	FileKey      string    `json:"file_key"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	CapturedAt   time.Time `json:"captured_at"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UploadedBy   int       `json:"uploaded_by"`
}
