package models

import (
	"encoding/json"
	"time"
)

// StudentNote holds one student's grade document, keyed by matricule. The
// per-semester breakdown (modules, matières, averages, decision) is free-form
// and stored as JSON, mirroring the shape produced by the grade-sheet parser.
type StudentNote struct {
	Matricule  int
	Department string
	FirstName  string
	LastName   string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
