package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/services"
)

const (
	topLocationLimit   = 3
	recentPendingLimit = 3
)

// AdminHandler serves the administration panel. Routes are mounted behind
// the admin middleware, so every store call runs unscoped.
type AdminHandler struct {
	store   DeclarationService
	maps    *services.MapService
	reports *services.ReportService
	now     func() time.Time
}

func NewAdminHandler(store DeclarationService, maps *services.MapService, reports *services.ReportService) *AdminHandler {
	return &AdminHandler{
		store:   store,
		maps:    maps,
		reports: reports,
		now:     time.Now,
	}
}

func fetchFailed(c *fiber.Ctx, err error) error {
	slog.Error("admin fetch failed", "path", c.Path(), "error", err)
	return errorJSON(c, fiber.StatusInternalServerError, "Failed to load declarations")
}

func (h *AdminHandler) ListDeclarations(c *fiber.Ctx) error {
	decls, err := h.store.FetchAll(c.UserContext())
	if err != nil {
		return fetchFailed(c, err)
	}
	return c.JSON(adminDeclarationList(services.Filter(decls, c.Query("q"))))
}

func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	status := models.Status(req.Status)
	if !status.Known() {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid status")
	}
	return setStatus(c, h.store, status)
}

func (h *AdminHandler) MarkFound(c *fiber.Ctx) error {
	return setStatus(c, h.store, models.StatusFound)
}

func (h *AdminHandler) DeleteDeclaration(c *fiber.Ctx) error {
	return deleteDeclaration(c, h.store)
}

// Stats backs the dashboard: counters, top locations and the pending bell.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	decls, err := h.store.FetchAll(c.UserContext())
	if err != nil {
		return fetchFailed(c, err)
	}

	pending := services.RecentPending(decls, recentPendingLimit)
	recent := make([]dto.DeclarationResponse, len(pending))
	for i, d := range pending {
		recent[i] = adminDeclarationResponse(d)
	}

	return c.JSON(dto.DashboardResponse{
		Statistics:    statisticsResponse(services.DeriveStatistics(decls)),
		TopLocations:  locationResponses(services.DeriveTopLocations(decls, topLocationLimit)),
		RecentPending: recent,
	})
}

func (h *AdminHandler) Users(c *fiber.Ctx) error {
	decls, err := h.store.FetchAll(c.UserContext())
	if err != nil {
		return fetchFailed(c, err)
	}

	users := userActivityResponses(services.SummarizeUsers(decls))
	return c.JSON(dto.UsersResponse{Users: users, Total: len(users)})
}

func (h *AdminHandler) DeleteUserData(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	deleted, err := h.store.DeleteAllForUser(c.UserContext(), userID)
	if err != nil {
		return declarationError(c, "delete_user_data", err)
	}

	slog.Info("user declarations deleted", "user_id", userID.String(), "deleted", deleted)
	return c.JSON(dto.DeleteUserDataResponse{Deleted: deleted})
}

func (h *AdminHandler) Map(c *fiber.Ctx) error {
	decls, err := h.store.FetchAll(c.UserContext())
	if err != nil {
		return fetchFailed(c, err)
	}

	markers := h.maps.Markers(decls)
	return c.JSON(fiber.Map{
		"markers":  markers,
		"clusters": h.maps.Clusters(markers),
	})
}

// ReportPDF streams the monthly report as an attachment.
func (h *AdminHandler) ReportPDF(c *fiber.Ctx) error {
	decls, err := h.store.FetchAll(c.UserContext())
	if err != nil {
		return fetchFailed(c, err)
	}

	exportDate := models.Date(h.now().Format(models.DateLayout))
	var buf bytes.Buffer
	if err := h.reports.Write(&buf, decls, exportDate); err != nil {
		slog.Error("report generation failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate report")
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, services.ReportFilename(exportDate)))
	return c.Send(buf.Bytes())
}
