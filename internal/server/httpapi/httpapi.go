// Package httpapi exposes the service layer over HTTP: the /auth account
// lifecycle endpoints and the /students grade endpoints. Routing is
// gorilla/mux; handlers translate domain errors into fixed user-visible
// responses and never leak store internals.
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/logging"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/config"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/services"
)

// API bundles the handlers and their dependencies.
type API struct {
	auth    *services.AuthService
	notes   *services.NoteService
	uploads *services.UploadService
	cfg     *config.Config
	logger  logging.Logger
}

// NewAPI constructs the HTTP surface over the given services.
func NewAPI(auth *services.AuthService, notes *services.NoteService,
	uploads *services.UploadService, cfg *config.Config, logger logging.Logger) *API {
	return &API{
		auth:    auth,
		notes:   notes,
		uploads: uploads,
		cfg:     cfg,
		logger:  logger.With("module", "http"),
	}
}

// Router builds the route table.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", a.register).Methods(http.MethodPost)
	auth.HandleFunc("/verify-email", a.verifyEmail).Methods(http.MethodGet)
	auth.HandleFunc("/login", a.login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh", a.refresh).Methods(http.MethodPost)
	auth.HandleFunc("/logout", a.logout).Methods(http.MethodPost)
	auth.HandleFunc("/forgot-password", a.forgotPassword).Methods(http.MethodPost)
	auth.HandleFunc("/reset-password", a.resetPassword).Methods(http.MethodPost)
	auth.Handle("/me", a.requireUser(http.HandlerFunc(a.me))).Methods(http.MethodGet)

	students := r.PathPrefix("/students").Subrouter()
	students.Handle("/upload-csv", a.requireUser(http.HandlerFunc(a.uploadCSV))).Methods(http.MethodPost)
	students.HandleFunc("/save-notes", a.saveNotes).Methods(http.MethodPost)
	students.HandleFunc("/notes", a.listNotes).Methods(http.MethodGet)
	students.HandleFunc("/notes/{matricule:[0-9]+}", a.getNote).Methods(http.MethodGet)
	students.HandleFunc("/statistics", a.statistics).Methods(http.MethodGet)

	return r
}
