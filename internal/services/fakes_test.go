package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/events"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/repository"
)

// fakeDeclarationRepo mimics the owner scoping of the SQL repository.
type fakeDeclarationRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]models.Declaration
	profiles  map[uuid.UUID]*models.Profile
	calls     int
	err       error
	createErr error
	lastPatch map[string]interface{}
}

func newFakeRepo(decls ...models.Declaration) *fakeDeclarationRepo {
	r := &fakeDeclarationRepo{
		rows:     make(map[uuid.UUID]models.Declaration),
		profiles: make(map[uuid.UUID]*models.Profile),
	}
	for _, d := range decls {
		r.rows[d.ID] = d
	}
	return r
}

func (r *fakeDeclarationRepo) touch() error {
	r.calls++
	return r.err
}

func (r *fakeDeclarationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return nil, err
	}
	var out []models.Declaration
	for _, d := range r.rows {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeDeclarationRepo) ListWithOwners(ctx context.Context) ([]models.AdminDeclaration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return nil, err
	}
	var out []models.AdminDeclaration
	for _, d := range r.rows {
		d.Owner = r.profiles[d.UserID]
		out = append(out, models.AdminDeclaration{Declaration: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IncidentDate > out[j].IncidentDate })
	return out, nil
}

func (r *fakeDeclarationRepo) Get(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return nil, err
	}
	d, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *fakeDeclarationRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return false, err
	}
	_, ok := r.rows[id]
	return ok, nil
}

func (r *fakeDeclarationRepo) Create(ctx context.Context, d *models.Declaration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return err
	}
	if r.createErr != nil {
		return r.createErr
	}
	r.rows[d.ID] = *d
	return nil
}

func (r *fakeDeclarationRepo) visible(id uuid.UUID, owner *uuid.UUID) (models.Declaration, bool) {
	d, ok := r.rows[id]
	if !ok || (owner != nil && d.UserID != *owner) {
		return models.Declaration{}, false
	}
	return d, true
}

func (r *fakeDeclarationRepo) Update(ctx context.Context, id uuid.UUID, owner *uuid.UUID, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return 0, err
	}
	r.lastPatch = fields
	d, ok := r.visible(id, owner)
	if !ok {
		return 0, nil
	}
	for k, v := range fields {
		switch k {
		case "status":
			d.Status = v.(models.Status)
		case "incident_location":
			d.IncidentLocation = v.(string)
		case "incident_date":
			d.IncidentDate = v.(models.Date)
		case "description":
			d.Description = v.(string)
		case "document_type_id":
			d.DocumentTypeID = v.(models.DocumentType)
		case "image_url":
			url := v.(string)
			d.ImageURL = &url
		}
	}
	r.rows[id] = d
	return 1, nil
}

func (r *fakeDeclarationRepo) Delete(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return 0, err
	}
	if _, ok := r.visible(id, owner); !ok {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

func (r *fakeDeclarationRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.touch(); err != nil {
		return 0, err
	}
	var n int64
	for id, d := range r.rows {
		if d.UserID == userID {
			delete(r.rows, id)
			n++
		}
	}
	return n, nil
}

type fakeStorage struct {
	uploaded  []string
	removed   []string
	uploadErr error
}

func (s *fakeStorage) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	s.uploaded = append(s.uploaded, objectName)
	return nil
}

func (s *fakeStorage) PublicURL(objectName string) string {
	return "http://localhost:9000/declarations/" + objectName
}

func (s *fakeStorage) Remove(ctx context.Context, objectName string) error {
	s.removed = append(s.removed, objectName)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []events.Event
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) Close() {}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.published))
	for i, e := range p.published {
		out[i] = e.Type
	}
	return out
}

var errBackend = errors.New("backend unavailable")

// fakeAccountRepo keeps identities and tokens in memory. Claim and Consume
// follow the conditional-update semantics of the SQL repository.
type fakeAccountRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	profiles  map[uuid.UUID]*models.Profile
	refresh   map[string]*models.RefreshToken
	oneTime   map[string]*models.OneTimeToken
	createErr error
}

func newFakeAccounts() *fakeAccountRepo {
	return &fakeAccountRepo{
		users:    make(map[uuid.UUID]*models.User),
		profiles: make(map[uuid.UUID]*models.Profile),
		refresh:  make(map[string]*models.RefreshToken),
		oneTime:  make(map[string]*models.OneTimeToken),
	}
}

func (r *fakeAccountRepo) CreateAccount(ctx context.Context, user *models.User, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if r.createErr != nil {
		return r.createErr
	}
	u, p := *user, *profile
	r.users[u.ID] = &u
	r.profiles[p.ID] = &p
	return nil
}

func (r *fakeAccountRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeAccountRepo) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeAccountRepo) ConfirmEmail(ctx context.Context, userID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.EmailConfirmedAt = &at
	}
	return nil
}

func (r *fakeAccountRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.refresh[token.TokenHash] = &cp
	return nil
}

func (r *fakeAccountRepo) ClaimRefreshToken(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.refresh[tokenHash]
	if !ok || t.Revoked {
		return nil, repository.ErrNotFound
	}
	t.Revoked = true
	cp := *t
	return &cp, nil
}

func (r *fakeAccountRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.refresh[tokenHash]; ok {
		t.Revoked = true
	}
	return nil
}

func (r *fakeAccountRepo) CreateOneTimeToken(ctx context.Context, token *models.OneTimeToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.oneTime[token.TokenHash] = &cp
	return nil
}

func (r *fakeAccountRepo) ConsumeOneTimeToken(ctx context.Context, tokenHash, purpose string, at time.Time) (*models.OneTimeToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.oneTime[tokenHash]
	if !ok || t.Purpose != purpose || t.UsedAt != nil || !t.ExpiresAt.After(at) {
		return nil, repository.ErrNotFound
	}
	t.UsedAt = &at
	cp := *t
	return &cp, nil
}

func (r *fakeAccountRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = passwordHash
	for _, t := range r.refresh {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	for _, t := range r.oneTime {
		if t.UserID == userID && t.Purpose == models.TokenPurposeRecovery && t.UsedAt == nil {
			t.UsedAt = &at
		}
	}
	return nil
}

func (r *fakeAccountRepo) activeRefreshTokens(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.refresh {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}
