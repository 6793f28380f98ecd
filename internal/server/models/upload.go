package models

import "time"

// Upload records one processed grade-sheet file: where the raw CSV was
// stored, who uploaded it, and how many student rows it produced.
type Upload struct {
	ID              string
	Filename        string
	StorageKey      string
	UploadedBy      string
	UploadedByEmail string
	Year            string
	StudentsCount   int
	FileSize        int64
	UploadedAt      time.Time
}
