package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/events"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/repository"
	"github.com/pertepiece/backend/internal/storage"
)

// Actor is the authenticated caller of a store operation.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// owner returns the row scope for the actor; admins are unscoped.
func (a Actor) owner() *uuid.UUID {
	if a.Admin {
		return nil
	}
	id := a.UserID
	return &id
}

// DeclarationDraft is the creation form. IncidentDate is the raw user input.
type DeclarationDraft struct {
	DocumentTypeID   models.DocumentType
	IncidentDate     string
	IncidentLocation string
	Description      string
}

// DeclarationPatch is a sparse edit; nil fields are left untouched.
type DeclarationPatch struct {
	DocumentTypeID   *models.DocumentType
	IncidentDate     *string
	IncidentLocation *string
	Description      *string
}

func (p DeclarationPatch) empty() bool {
	return p.DocumentTypeID == nil && p.IncidentDate == nil && p.IncidentLocation == nil && p.Description == nil
}

type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

type DeclarationStore struct {
	repo    repository.DeclarationRepository
	storage storage.ObjectStorage
	events  events.Publisher
	bucket  string
	now     func() time.Time
}

func NewDeclarationStore(repo repository.DeclarationRepository, objects storage.ObjectStorage, publisher events.Publisher, bucket string) *DeclarationStore {
	return &DeclarationStore{
		repo:    repo,
		storage: objects,
		events:  publisher,
		bucket:  bucket,
		now:     time.Now,
	}
}

func (s *DeclarationStore) FetchOwn(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error) {
	decls, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch own declarations: %w", err)
	}
	return decls, nil
}

func (s *DeclarationStore) FetchAll(ctx context.Context) ([]models.AdminDeclaration, error) {
	decls, err := s.repo.ListWithOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch all declarations: %w", err)
	}
	return decls, nil
}

func (s *DeclarationStore) Get(ctx context.Context, actor Actor, id uuid.UUID) (*models.Declaration, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !actor.Admin && d.UserID != actor.UserID {
		return nil, ErrNotPermitted
	}
	return d, nil
}

// MaxLocationLength matches the incident_location column width.
const MaxLocationLength = 255

func validateLocation(location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return &ValidationError{Field: "incident_location", Message: "location is required"}
	}
	if utf8.RuneCountInString(location) > MaxLocationLength {
		return &ValidationError{Field: "incident_location", Message: fmt.Sprintf("location must be at most %d characters", MaxLocationLength)}
	}
	return nil
}

func validateDocumentType(t models.DocumentType) error {
	if !t.Valid() {
		return &ValidationError{Field: "document_type_id", Message: "unknown document type"}
	}
	return nil
}

// Create validates the draft, uploads the photo if any, then inserts the
// record as EN_ATTENTE. Nothing reaches the backend if validation fails.
func (s *DeclarationStore) Create(ctx context.Context, userID uuid.UUID, draft DeclarationDraft, image *ImageUpload) (*models.Declaration, error) {
	if err := validateLocation(draft.IncidentLocation); err != nil {
		return nil, err
	}
	date, err := NormalizeIncidentDate(draft.IncidentDate)
	if err != nil {
		return nil, err
	}
	if err := validateDocumentType(draft.DocumentTypeID); err != nil {
		return nil, err
	}

	d := &models.Declaration{
		ID:               uuid.New(),
		UserID:           userID,
		DocumentTypeID:   draft.DocumentTypeID,
		IncidentDate:     date,
		IncidentLocation: strings.TrimSpace(draft.IncidentLocation),
		Description:      strings.TrimSpace(draft.Description),
		Status:           models.StatusPending,
	}

	var objectName string
	if image != nil {
		objectName, err = s.upload(ctx, image)
		if err != nil {
			return nil, err
		}
		url := s.storage.PublicURL(objectName)
		d.ImageURL = &url
	}

	if err := s.repo.Create(ctx, d); err != nil {
		s.discard(ctx, objectName)
		return nil, fmt.Errorf("create declaration: %w", err)
	}

	slog.Info("declaration created", "user_id", userID.String(), "declaration_id", d.ID.String())
	s.publish(ctx, events.DeclarationCreated, d, nil)
	return d, nil
}

// Update applies a sparse patch. Only the provided fields are validated and
// written; image_url is written only when a new image is uploaded.
func (s *DeclarationStore) Update(ctx context.Context, actor Actor, id uuid.UUID, patch DeclarationPatch, image *ImageUpload) error {
	if patch.empty() && image == nil {
		return &ValidationError{Field: "body", Message: "nothing to update"}
	}

	fields := make(map[string]interface{})
	if patch.IncidentLocation != nil {
		if err := validateLocation(*patch.IncidentLocation); err != nil {
			return err
		}
		fields["incident_location"] = strings.TrimSpace(*patch.IncidentLocation)
	}
	if patch.IncidentDate != nil {
		date, err := NormalizeIncidentDate(*patch.IncidentDate)
		if err != nil {
			return err
		}
		fields["incident_date"] = date
	}
	if patch.DocumentTypeID != nil {
		if err := validateDocumentType(*patch.DocumentTypeID); err != nil {
			return err
		}
		fields["document_type_id"] = *patch.DocumentTypeID
	}
	if patch.Description != nil {
		fields["description"] = strings.TrimSpace(*patch.Description)
	}

	var objectName string
	if image != nil {
		var err error
		objectName, err = s.upload(ctx, image)
		if err != nil {
			return err
		}
		fields["image_url"] = s.storage.PublicURL(objectName)
	}

	rows, err := s.repo.Update(ctx, id, actor.owner(), fields)
	if err != nil {
		s.discard(ctx, objectName)
		return fmt.Errorf("update declaration: %w", err)
	}
	if rows == 0 {
		s.discard(ctx, objectName)
		return s.missed(ctx, id)
	}

	slog.Info("declaration updated", "user_id", actor.UserID.String(), "declaration_id", id.String())
	return nil
}

// SetStatus writes only the status column. Citizens may only mark their
// own declarations as found.
func (s *DeclarationStore) SetStatus(ctx context.Context, actor Actor, id uuid.UUID, status models.Status) error {
	if !status.Known() {
		return ErrInvalidStatus
	}
	if !actor.Admin && status != models.StatusFound {
		return ErrNotPermitted
	}

	rows, err := s.repo.Update(ctx, id, actor.owner(), map[string]interface{}{"status": status})
	if err != nil {
		return fmt.Errorf("set declaration status: %w", err)
	}
	if rows == 0 {
		return s.missed(ctx, id)
	}

	slog.Info("declaration status changed", "user_id", actor.UserID.String(), "declaration_id", id.String(), "status", string(status))
	s.publish(ctx, events.DeclarationStatusChanged, &models.Declaration{ID: id, Status: status}, map[string]interface{}{
		"changed_by": actor.UserID.String(),
	})
	return nil
}

// Delete removes the declaration and then checks that a row was actually
// deleted. A row that survives the scoped delete yields ErrNotPermitted.
func (s *DeclarationStore) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete declaration: %w", err)
	}

	rows, err := s.repo.Delete(ctx, id, actor.owner())
	if err != nil {
		return fmt.Errorf("delete declaration: %w", err)
	}
	if rows == 0 {
		return s.missed(ctx, id)
	}

	if existing.HasImage() {
		s.discard(ctx, storage.ObjectNameFromURL(*existing.ImageURL, s.bucket))
	}

	slog.Info("declaration deleted", "user_id", actor.UserID.String(), "declaration_id", id.String())
	s.publish(ctx, events.DeclarationDeleted, existing, map[string]interface{}{
		"deleted_by": actor.UserID.String(),
	})
	return nil
}

// DeleteAllForUser removes every declaration owned by userID and returns
// the exact number of rows deleted.
func (s *DeclarationStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user declarations: %w", err)
	}
	slog.Info("user declarations deleted", "user_id", userID.String(), "count", deleted)
	return deleted, nil
}

// missed tells a missing row apart from one the actor may not touch.
func (s *DeclarationStore) missed(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("verify declaration: %w", err)
	}
	if exists {
		return ErrNotPermitted
	}
	return ErrNotFound
}

func (s *DeclarationStore) upload(ctx context.Context, image *ImageUpload) (string, error) {
	name := s.objectName(image)
	contentType := image.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if err := s.storage.Upload(ctx, name, image.Reader, image.Size, contentType); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return name, nil
}

// objectName is img-<unix millis>-<8 hex>.<ext>.
func (s *DeclarationStore) objectName(image *ImageUpload) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(image.Filename)), ".")
	if ext == "" && image.ContentType != "" {
		if exts, _ := mime.ExtensionsByType(image.ContentType); len(exts) > 0 {
			ext = strings.TrimPrefix(exts[0], ".")
		}
	}
	if ext == "" || ext == "jpeg" || ext == "jpe" || ext == "jfif" {
		ext = "jpg"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("img-%d-%s.%s", s.now().UnixMilli(), suffix, ext)
}

func (s *DeclarationStore) discard(ctx context.Context, objectName string) {
	if objectName == "" {
		return
	}
	if err := s.storage.Remove(context.WithoutCancel(ctx), objectName); err != nil {
		slog.Warn("failed to remove orphan image", "object", objectName, "error", err)
	}
}

func (s *DeclarationStore) publish(ctx context.Context, eventType string, d *models.Declaration, extra map[string]interface{}) {
	payload := map[string]interface{}{
		"declaration_id": d.ID.String(),
		"status":         string(d.Status),
	}
	if d.UserID != uuid.Nil {
		payload["user_id"] = d.UserID.String()
	}
	if d.DocumentTypeID != 0 {
		payload["document_type"] = d.DocumentTypeID.Name()
	}
	for k, v := range extra {
		payload[k] = v
	}
	if err := s.events.Publish(ctx, events.New(eventType, payload)); err != nil {
		slog.Error("failed to publish event", "action", eventType, "declaration_id", d.ID.String(), "error", err)
	}
}
