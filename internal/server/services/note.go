package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/logging"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/repomanager"
)

// NoteFilters narrows note queries. Zero values mean "no filter". Semester
// and Year apply to the JSON payload; Department is a column filter.
type NoteFilters struct {
	Semester   string
	Department string
	Year       string
}

// SaveResult summarizes a bulk upsert.
type SaveResult struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// AverageBucket is one entry of the 0..20 grade distribution.
type AverageBucket struct {
	Average    int     `json:"average"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Statistics aggregates outcomes over a filtered set of students.
type Statistics struct {
	TotalStudents        int             `json:"total_students"`
	Passed               int             `json:"passed"`
	Failed               int             `json:"failed"`
	Rattrapage           int             `json:"rattrapage"`
	PassedPercentage     float64         `json:"passed_percentage"`
	FailedPercentage     float64         `json:"failed_percentage"`
	RattrapagePercentage float64         `json:"rattrapage_percentage"`
	AverageDistribution  []AverageBucket `json:"average_distribution"`
	TotalAverage         float64         `json:"total_average"`
}

// NoteService stores and queries student grade documents.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewNoteService constructs a NoteService.
func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *NoteService {
	return &NoteService{db: db, repomanager: m, logger: logger.With("module", "notes")}
}

// SaveNotes upserts a batch of note documents keyed by matricule.
func (s *NoteService) SaveNotes(ctx context.Context, notes []*models.StudentNote) (*SaveResult, error) {
	result := &SaveResult{Total: len(notes)}
	repo := s.repomanager.Notes(s.db)
	for _, note := range notes {
		created, err := repo.Upsert(ctx, note)
		if err != nil {
			return nil, fmt.Errorf("saving matricule %d: %w", note.Matricule, err)
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

// Get returns one student's document by matricule.
func (s *NoteService) Get(ctx context.Context, matricule int) (*models.StudentNote, error) {
	return s.repomanager.Notes(s.db).Get(ctx, matricule)
}

// List returns note documents matching the filters. Department narrows at
// the store; semester and year are evaluated against the JSON payload.
func (s *NoteService) List(ctx context.Context, filters NoteFilters) ([]*models.StudentNote, error) {
	notes, err := s.repomanager.Notes(s.db).List(ctx, filters.Department)
	if err != nil {
		return nil, err
	}
	if filters.Semester == "" && filters.Year == "" {
		return notes, nil
	}

	out := make([]*models.StudentNote, 0, len(notes))
	for _, note := range notes {
		doc, err := decodeDoc(note)
		if err != nil {
			s.logger.Warn(ctx, "skipping undecodable note document", "matricule", note.Matricule, "error", err)
			continue
		}
		if matchesSemesterYear(doc, filters.Semester, filters.Year) {
			out = append(out, note)
		}
	}
	return out, nil
}

// Statistics computes pass/fail/rattrapage counts, the grade distribution,
// and the overall average over the filtered set.
func (s *NoteService) Statistics(ctx context.Context, filters NoteFilters) (*Statistics, error) {
	notes, err := s.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{AverageDistribution: make([]AverageBucket, 21)}
	for i := range stats.AverageDistribution {
		stats.AverageDistribution[i].Average = i
	}
	if len(notes) == 0 {
		return stats, nil
	}

	stats.TotalStudents = len(notes)
	var averageSum float64
	var averageCount int

	for _, note := range notes {
		doc, err := decodeDoc(note)
		if err != nil {
			continue
		}
		semDoc := semesterDoc(doc, filters.Semester)
		if semDoc == nil {
			continue
		}

		moyenne := coerceFloat(semDoc["moyenne_generale"])
		decision := strings.ToUpper(fmt.Sprintf("%v", semDoc["decision"]))
		creditTotal := coerceFloat(semDoc["credit_total"])

		averageSum += moyenne
		averageCount++
		bucket := int(math.Round(moyenne))
		if bucket < 0 {
			bucket = 0
		}
		if bucket > 20 {
			bucket = 20
		}
		stats.AverageDistribution[bucket].Count++

		switch {
		case strings.Contains(decision, "ADMIS") || (moyenne >= 10 && creditTotal >= 30):
			stats.Passed++
		case strings.Contains(decision, "RATTRAPAGE") || (moyenne < 10 && creditTotal < 30):
			stats.Rattrapage++
		default:
			stats.Failed++
		}
	}

	total := float64(stats.TotalStudents)
	stats.PassedPercentage = round2(float64(stats.Passed) / total * 100)
	stats.FailedPercentage = round2(float64(stats.Failed) / total * 100)
	stats.RattrapagePercentage = round2(float64(stats.Rattrapage) / total * 100)
	if averageCount > 0 {
		stats.TotalAverage = round2(averageSum / float64(averageCount))
		for i := range stats.AverageDistribution {
			stats.AverageDistribution[i].Percentage = round2(float64(stats.AverageDistribution[i].Count) / float64(averageCount) * 100)
		}
	}
	return stats, nil
}

func decodeDoc(note *models.StudentNote) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(note.Data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// matchesSemesterYear applies the payload-level filters: a named semester
// must exist as a key; a year must match within the named semester, or
// within any semester when none is named.
func matchesSemesterYear(doc map[string]any, semester, year string) bool {
	if semester != "" {
		semDoc, ok := doc[semester].(map[string]any)
		if !ok {
			return false
		}
		if year != "" && semDoc["year"] != year {
			return false
		}
		return true
	}
	if year != "" {
		for _, v := range doc {
			if semDoc, ok := v.(map[string]any); ok && semDoc["year"] == year {
				return true
			}
		}
		return false
	}
	return true
}

// semesterDoc picks the semester payload to aggregate: the named one, or the
// first one carrying a moyenne_generale.
func semesterDoc(doc map[string]any, semester string) map[string]any {
	if semester != "" {
		semDoc, _ := doc[semester].(map[string]any)
		return semDoc
	}
	for _, v := range doc {
		if semDoc, ok := v.(map[string]any); ok {
			if _, has := semDoc["moyenne_generale"]; has {
				return semDoc
			}
		}
	}
	return nil
}

// coerceFloat reads a JSON value that may be a number or a French-formatted
// numeric string.
func coerceFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		return toFloat(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	default:
		return 0
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
