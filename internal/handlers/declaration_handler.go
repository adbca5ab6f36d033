package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/services"
	"github.com/pertepiece/backend/internal/session"
)

const maxImageSize = 5 * 1024 * 1024

// DeclarationService is the declaration store surface used by the HTTP layer.
type DeclarationService interface {
	FetchOwn(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error)
	FetchAll(ctx context.Context) ([]models.AdminDeclaration, error)
	Get(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Declaration, error)
	Create(ctx context.Context, userID uuid.UUID, draft services.DeclarationDraft, image *services.ImageUpload) (*models.Declaration, error)
	Update(ctx context.Context, actor services.Actor, id uuid.UUID, patch services.DeclarationPatch, image *services.ImageUpload) error
	SetStatus(ctx context.Context, actor services.Actor, id uuid.UUID, status models.Status) error
	Delete(ctx context.Context, actor services.Actor, id uuid.UUID) error
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type DeclarationHandler struct {
	store DeclarationService
}

func NewDeclarationHandler(store DeclarationService) *DeclarationHandler {
	return &DeclarationHandler{store: store}
}

func actorFrom(c *fiber.Ctx) (services.Actor, error) {
	userID, err := session.GetUserID(c)
	if err != nil {
		return services.Actor{}, err
	}
	return services.Actor{UserID: userID, Admin: session.IsAdmin(c)}, nil
}

func declarationID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	return id, err == nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// imageFrom reads the optional "image" part of a multipart form. The
// returned closer is nil when no image was sent.
func imageFrom(c *fiber.Ctx) (*services.ImageUpload, io.Closer, error) {
	if !isMultipart(c) {
		return nil, nil, nil
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, nil, nil
	}
	return openImage(fh)
}

func openImage(fh *multipart.FileHeader) (*services.ImageUpload, io.Closer, error) {
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, nil, &services.ValidationError{Field: "image", Message: "only image uploads are accepted"}
	}
	if fh.Size > maxImageSize {
		return nil, nil, &services.ValidationError{Field: "image", Message: "image must be 5 MB or smaller"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &services.ImageUpload{
		Reader:      f,
		Size:        fh.Size,
		ContentType: contentType,
		Filename:    fh.Filename,
	}, f, nil
}

func (h *DeclarationHandler) DocumentTypes(c *fiber.Ctx) error {
	return c.JSON(documentTypeResponses())
}

// List returns the caller's declarations, newest first, narrowed by ?q=.
func (h *DeclarationHandler) List(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	decls, err := h.store.FetchOwn(c.UserContext(), userID)
	if err != nil {
		return declarationError(c, "list", err)
	}

	return c.JSON(declarationList(services.Filter(decls, c.Query("q"))))
}

func (h *DeclarationHandler) Create(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.CreateDeclarationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	image, closer, err := imageFrom(c)
	if err != nil {
		return declarationError(c, "create", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	d, err := h.store.Create(c.UserContext(), userID, services.DeclarationDraft{
		DocumentTypeID:   models.DocumentType(req.DocumentTypeID),
		IncidentDate:     req.IncidentDate,
		IncidentLocation: req.IncidentLocation,
		Description:      req.Description,
	}, image)
	if err != nil {
		return declarationError(c, "create", err)
	}

	return c.Status(fiber.StatusCreated).JSON(declarationResponse(*d))
}

func (h *DeclarationHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := declarationID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid declaration ID")
	}

	d, err := h.store.Get(c.UserContext(), actor, id)
	if err != nil {
		return declarationError(c, "get", err)
	}

	return c.JSON(dto.DeclarationDetailResponse{
		DeclarationResponse: declarationResponse(*d),
		CanMarkFound:        !d.Status.IsResolved(),
	})
}

func (h *DeclarationHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := declarationID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid declaration ID")
	}

	var req dto.UpdateDeclarationRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}

	image, closer, err := imageFrom(c)
	if err != nil {
		return declarationError(c, "update", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	patch := services.DeclarationPatch{
		IncidentDate:     req.IncidentDate,
		IncidentLocation: req.IncidentLocation,
		Description:      req.Description,
	}
	if req.DocumentTypeID != nil {
		t := models.DocumentType(*req.DocumentTypeID)
		patch.DocumentTypeID = &t
	}

	if err := h.store.Update(c.UserContext(), actor, id, patch, image); err != nil {
		return declarationError(c, "update", err)
	}

	d, err := h.store.Get(c.UserContext(), actor, id)
	if err != nil {
		return declarationError(c, "update", err)
	}
	return c.JSON(declarationResponse(*d))
}

func (h *DeclarationHandler) Delete(c *fiber.Ctx) error {
	return deleteDeclaration(c, h.store)
}

// MarkFound flags a declaration as RETROUVE.
func (h *DeclarationHandler) MarkFound(c *fiber.Ctx) error {
	return setStatus(c, h.store, models.StatusFound)
}

func deleteDeclaration(c *fiber.Ctx, store DeclarationService) error {
	actor, err := actorFrom(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := declarationID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid declaration ID")
	}

	if err := store.Delete(c.UserContext(), actor, id); err != nil {
		return declarationError(c, "delete", err)
	}

	return c.JSON(dto.MessageResponse{Message: "Declaration deleted"})
}

func setStatus(c *fiber.Ctx, store DeclarationService, status models.Status) error {
	actor, err := actorFrom(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	id, ok := declarationID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid declaration ID")
	}

	if err := store.SetStatus(c.UserContext(), actor, id, status); err != nil {
		return declarationError(c, "set_status", err)
	}

	return c.JSON(dto.MessageResponse{Message: "Status updated"})
}
