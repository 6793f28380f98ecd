package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/logging"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/repomanager"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/storage"
)

var yearPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// UploadResult reports the outcome of one processed grade sheet.
type UploadResult struct {
	Year          string         `json:"year"`
	Semester      string         `json:"semester"`
	StudentsCount int            `json:"students_count"`
	Save          *SaveResult    `json:"results"`
	Upload        *models.Upload `json:"upload_info"`
}

// UploadService ingests uploaded grade-sheet CSVs: it stores the raw file,
// parses it into per-student documents, upserts the notes, and records the
// upload.
type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notes       *NoteService
	files       storage.FileStore
	logger      logging.Logger
}

// NewUploadService constructs an UploadService over the given file store.
func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, notes *NoteService,
	files storage.FileStore, logger logging.Logger) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: m,
		notes:       notes,
		files:       files,
		logger:      logger.With("module", "uploads"),
	}
}

// ValidYear reports whether year has the expected YYYY-YYYY form.
func ValidYear(year string) bool {
	return yearPattern.MatchString(year)
}

// ProcessCSV handles one uploaded file end to end. The raw file is stored
// first so a parse failure never loses the original document.
func (s *UploadService) ProcessCSV(ctx context.Context, filename, year string, data []byte, uploader *models.User) (*UploadResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, fmt.Errorf("%w: file must be a CSV file", common.ErrValidation)
	}
	if !ValidYear(year) {
		return nil, fmt.Errorf("%w: year must be in format YYYY-YYYY", common.ErrValidation)
	}

	key, err := s.files.Save(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("storing uploaded file: %w", err)
	}

	sheet, err := parseGradeSheet(data, year)
	if err != nil {
		return nil, err
	}
	notes, err := sheet.notes()
	if err != nil {
		return nil, err
	}

	saved, err := s.notes.SaveNotes(ctx, notes)
	if err != nil {
		return nil, err
	}

	upload, err := s.repomanager.Uploads(s.db).Create(ctx, &models.Upload{
		Filename:        filename,
		StorageKey:      key,
		UploadedBy:      uploader.ID,
		UploadedByEmail: uploader.Email,
		Year:            year,
		StudentsCount:   len(notes),
		FileSize:        int64(len(data)),
	})
	if err != nil {
		return nil, fmt.Errorf("recording upload: %w", err)
	}

	s.logger.Info(ctx, "grade sheet processed",
		"filename", filename, "year", year, "semester", sheet.semester,
		"students", len(notes), "storage_key", key)

	return &UploadResult{
		Year:          year,
		Semester:      sheet.semester,
		StudentsCount: len(notes),
		Save:          saved,
		Upload:        upload,
	}, nil
}
