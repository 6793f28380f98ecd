package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/common"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/dbx"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/logging"
	"github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/models"
	emailtokensrepo "github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/emailtokens"
	notesrepo "github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/notes"
	refreshtokensrepo "github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/refreshtokens"
	uploadsrepo "github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/uploads"
	usersrepo "github.com/AhmedouVall23010/SupNum-Resultats-server/internal/server/repositories/users"
)

// newTestDB returns a throwaway database handle. The in-memory repositories
// below ignore it, but dbx.WithTx needs a real connection to begin and
// commit transactions on.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// --- in-memory repositories ---

type memUsersRepo struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byID: map[string]*models.User{}}
}

func (r *memUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	u.ID = uuid.NewString()
	u.IsActive = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.byID[u.ID] = &u
	out := u
	return &out, nil
}

func (r *memUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memUsersRepo) ReplacePending(_ context.Context, id string, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.EmailVerified {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memUsersRepo) SetVerified(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) { u.EmailVerified = true })
}

func (r *memUsersRepo) SetPasswordHash(_ context.Context, id string, passwordHash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r *memUsersRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.update(id, func(u *models.User) { u.IsActive = active })
}

func (r *memUsersRepo) update(id string, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

type memRefreshRepo struct {
	mu   sync.Mutex
	byFp map[string]*models.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{byFp: map[string]*models.RefreshToken{}}
}

func (r *memRefreshRepo) Create(_ context.Context, userID string, fingerprint string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.byFp[fingerprint] = &models.RefreshToken{
		ID:          uuid.NewString(),
		UserID:      userID,
		Fingerprint: fingerprint,
		IssuedAt:    now,
		ExpiresAt:   now.Add(validity),
	}
	return nil
}

func (r *memRefreshRepo) Find(_ context.Context, fingerprint string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byFp[fingerprint]; ok {
		out := *t
		return &out, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memRefreshRepo) Revoke(_ context.Context, fingerprint string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byFp[fingerprint]
	if !ok || t.RevokedAt != nil {
		return false, nil
	}
	now := time.Now()
	t.RevokedAt = &now
	return true, nil
}

func (r *memRefreshRepo) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var n int64
	for _, t := range r.byFp {
		if t.UserID == userID && t.RevokedAt == nil && t.ExpiresAt.After(now) {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

type memEmailRepo struct {
	mu   sync.Mutex
	byFp map[string]*models.EmailToken
}

func newMemEmailRepo() *memEmailRepo {
	return &memEmailRepo{byFp: map[string]*models.EmailToken{}}
}

func emailKey(fingerprint, purpose string) string { return purpose + "|" + fingerprint }

func (r *memEmailRepo) Create(_ context.Context, userID string, purpose string, fingerprint string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.byFp[emailKey(fingerprint, purpose)] = &models.EmailToken{
		ID:          uuid.NewString(),
		UserID:      userID,
		Purpose:     purpose,
		Fingerprint: fingerprint,
		IssuedAt:    now,
		ExpiresAt:   now.Add(validity),
	}
	return nil
}

func (r *memEmailRepo) Find(_ context.Context, fingerprint string, purpose string) (*models.EmailToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.byFp[emailKey(fingerprint, purpose)]; ok {
		out := *t
		return &out, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memEmailRepo) Consume(_ context.Context, fingerprint string, purpose string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byFp[emailKey(fingerprint, purpose)]
	if !ok || t.ConsumedAt != nil {
		return false, nil
	}
	now := time.Now()
	t.ConsumedAt = &now
	return true, nil
}

func (r *memEmailRepo) SupersedeAllForUser(_ context.Context, userID string, purpose string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.byFp {
		if t.UserID == userID && t.Purpose == purpose && t.ConsumedAt == nil {
			t.ConsumedAt = &now
		}
	}
	return nil
}

type memNotesRepo struct {
	mu          sync.Mutex
	byMatricule map[int]*models.StudentNote
}

func newMemNotesRepo() *memNotesRepo {
	return &memNotesRepo{byMatricule: map[int]*models.StudentNote{}}
}

func (r *memNotesRepo) Upsert(_ context.Context, note *models.StudentNote) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	n := *note
	n.UpdatedAt = now
	if existing, ok := r.byMatricule[note.Matricule]; ok {
		n.CreatedAt = existing.CreatedAt
		r.byMatricule[note.Matricule] = &n
		return false, nil
	}
	n.CreatedAt = now
	r.byMatricule[note.Matricule] = &n
	return true, nil
}

func (r *memNotesRepo) Get(_ context.Context, matricule int) (*models.StudentNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.byMatricule[matricule]; ok {
		out := *n
		return &out, nil
	}
	return nil, common.ErrorNotFound
}

func (r *memNotesRepo) List(_ context.Context, department string) ([]*models.StudentNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.StudentNote
	for _, n := range r.byMatricule {
		if department != "" && n.Department != department {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	return out, nil
}

type memUploadsRepo struct {
	mu      sync.Mutex
	uploads []*models.Upload
}

func (r *memUploadsRepo) Create(_ context.Context, upload *models.Upload) (*models.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *upload
	u.ID = uuid.NewString()
	u.UploadedAt = time.Now()
	r.uploads = append(r.uploads, &u)
	out := u
	return &out, nil
}

type memRepoManager struct {
	users   *memUsersRepo
	refresh *memRefreshRepo
	email   *memEmailRepo
	notes   *memNotesRepo
	uploads *memUploadsRepo
}

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{
		users:   newMemUsersRepo(),
		refresh: newMemRefreshRepo(),
		email:   newMemEmailRepo(),
		notes:   newMemNotesRepo(),
		uploads: &memUploadsRepo{},
	}
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error      { return nil }
func (m *memRepoManager) Users(dbx.DBTX) usersrepo.Repository               { return m.users }
func (m *memRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return m.refresh
}
func (m *memRepoManager) EmailTokens(dbx.DBTX) emailtokensrepo.Repository { return m.email }
func (m *memRepoManager) Notes(dbx.DBTX) notesrepo.Repository             { return m.notes }
func (m *memRepoManager) Uploads(dbx.DBTX) uploadsrepo.Repository         { return m.uploads }

// --- mail capture ---

type sentMail struct {
	kind string
	to   string
	link string
}

type fakeSender struct {
	ch chan sentMail
}

func newFakeSender() *fakeSender {
	return &fakeSender{ch: make(chan sentMail, 16)}
}

func (f *fakeSender) SendVerificationEmail(to string, link string) error {
	f.ch <- sentMail{kind: "verify", to: to, link: link}
	return nil
}

func (f *fakeSender) SendPasswordResetEmail(to string, link string) error {
	f.ch <- sentMail{kind: "reset", to: to, link: link}
	return nil
}

// waitMail blocks until the sender delivered a message; sends run on
// goroutines, so tests must synchronize through the channel.
func waitMail(t *testing.T, f *fakeSender) sentMail {
	t.Helper()
	select {
	case m := <-f.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email")
		return sentMail{}
	}
}

func assertNoMail(t *testing.T, f *fakeSender) {
	t.Helper()
	select {
	case m := <-f.ch:
		t.Fatalf("unexpected email to %s: %s", m.to, m.link)
	case <-time.After(100 * time.Millisecond):
	}
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parsing link %q: %v", link, err)
	}
	token := u.Query().Get("token")
	if token == "" {
		t.Fatalf("link %q carries no token", link)
	}
	return token
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
