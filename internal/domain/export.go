package domain

import "time"

type ExportStatus string

const (
	ExportStatusPending   ExportStatus = "pending"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusUploading ExportStatus = "uploading"
	ExportStatusCompleted ExportStatus = "completed"
	ExportStatusFailed    ExportStatus = "failed"
)

// Export tracks a CSV dump of a space's transactions pushed to object storage.
type Export struct {
	ID             string
	SpaceID        string
	RequestedBy    string
	Status         ExportStatus
	RowCount       int
	LocalPath      string
	RemoteLocation string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}
