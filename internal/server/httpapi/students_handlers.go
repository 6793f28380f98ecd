package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/services"
)

// maxUploadBytes bounds grade-sheet uploads; PV exports are well under this.
const maxUploadBytes = 20 << 20

type notesFiltersView struct {
	Semester   *string `json:"semester"`
	Department *string `json:"department"`
	Year       *string `json:"year"`
}

func filtersView(f services.NoteFilters) notesFiltersView {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	return notesFiltersView{Semester: opt(f.Semester), Department: opt(f.Department), Year: opt(f.Year)}
}

func (a *API) noteFilters(r *http.Request) (services.NoteFilters, error) {
	q := r.URL.Query()
	f := services.NoteFilters{
		Semester:   q.Get("semester"),
		Department: q.Get("department"),
		Year:       q.Get("year"),
	}
	if f.Year != "" && !services.ValidYear(f.Year) {
		return f, fmt.Errorf("%w: year must be in format YYYY-YYYY (e.g., 2024-2025)", common.ErrValidation)
	}
	return f, nil
}

func (a *API) uploadCSV(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("year")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: missing file field", common.ErrValidation))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("reading upload: %w", err))
		return
	}

	result, err := a.uploads.ProcessCSV(r.Context(), header.Filename, year, data, userFrom(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		*services.UploadResult
	}{
		Message:      "CSV file processed and saved successfully",
		UploadResult: result,
	})
}

// noteDocHeader is the slice of a note document the server needs to index it.
type noteDocHeader struct {
	Matricule  int    `json:"matricule"`
	Department string `json:"department"`
	Prenom     string `json:"prenom"`
	Nom        string `json:"nom"`
}

func (a *API) saveNotes(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	if len(body) == 0 {
		a.writeError(w, r, fmt.Errorf("%w: empty students payload", common.ErrValidation))
		return
	}

	notes := make([]*models.StudentNote, 0, len(body))
	for key, doc := range body {
		var head noteDocHeader
		if err := json.Unmarshal(doc, &head); err != nil {
			a.writeError(w, r, fmt.Errorf("%w: student %s is not an object", common.ErrValidation, key))
			return
		}
		matricule := head.Matricule
		if m, err := strconv.Atoi(key); err == nil && m != 0 {
			matricule = m
		}
		if matricule == 0 {
			a.writeError(w, r, fmt.Errorf("%w: student %s has no matricule", common.ErrValidation, key))
			return
		}
		notes = append(notes, &models.StudentNote{
			Matricule:  matricule,
			Department: head.Department,
			FirstName:  head.Prenom,
			LastName:   head.Nom,
			Data:       doc,
		})
	}

	result, err := a.notes.SaveNotes(r.Context(), notes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, struct {
		Message string               `json:"message"`
		Results *services.SaveResult `json:"results"`
	}{
		Message: "Notes saved successfully",
		Results: result,
	})
}

func (a *API) listNotes(w http.ResponseWriter, r *http.Request) {
	filters, err := a.noteFilters(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	notes, err := a.notes.List(r.Context(), filters)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	docs := make([]json.RawMessage, 0, len(notes))
	for _, n := range notes {
		docs = append(docs, json.RawMessage(n.Data))
	}

	a.writeJSON(w, http.StatusOK, struct {
		Total   int               `json:"total"`
		Filters notesFiltersView  `json:"filters"`
		Notes   []json.RawMessage `json:"notes"`
	}{
		Total:   len(docs),
		Filters: filtersView(filters),
		Notes:   docs,
	})
}

func (a *API) getNote(w http.ResponseWriter, r *http.Request) {
	matricule, err := strconv.Atoi(mux.Vars(r)["matricule"])
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: matricule must be a number", common.ErrValidation))
		return
	}

	note, err := a.notes.Get(r.Context(), matricule)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(note.Data)
}

func (a *API) statistics(w http.ResponseWriter, r *http.Request) {
	filters, err := a.noteFilters(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	stats, err := a.notes.Statistics(r.Context(), filters)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, struct {
		Filters notesFiltersView `json:"filters"`
		*services.Statistics
	}{
		Filters:    filtersView(filters),
		Statistics: stats,
	})
}
