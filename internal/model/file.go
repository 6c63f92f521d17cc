package model

import "time"

type ImportStatus string

const (
	ImportStatusUploaded ImportStatus = "UPLOADED"
	ImportStatusImported ImportStatus = "IMPORTED"
	ImportStatusFailed   ImportStatus = "FAILED"
)

// ImportFile tracks a spreadsheet of listings uploaded for bulk import.
type ImportFile struct {
	ID            string       `json:"id" db:"id"`
	S3Path        string       `json:"s3_path" db:"s3_path"`
	CreatedBy     string       `json:"created_by" db:"created_by"`
	Status        ImportStatus `json:"status" db:"status"`
	ErrorMessage  *string      `json:"error_message,omitempty" db:"error_message"`
	ImportedCount int          `json:"imported_count" db:"imported_count"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}
