package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
)

// CreateDeclarationRequest is the JSON form body. Multipart submissions use
// the same field names plus an "image" file part.
type CreateDeclarationRequest struct {
	DocumentTypeID   int64  `json:"document_type_id" form:"document_type_id"`
	IncidentDate     string `json:"incident_date" form:"incident_date"`
	IncidentLocation string `json:"incident_location" form:"incident_location"`
	Description      string `json:"description" form:"description"`
}

type UpdateDeclarationRequest struct {
	DocumentTypeID   *int64  `json:"document_type_id,omitempty" form:"document_type_id"`
	IncidentDate     *string `json:"incident_date,omitempty" form:"incident_date"`
	IncidentLocation *string `json:"incident_location,omitempty" form:"incident_location"`
	Description      *string `json:"description,omitempty" form:"description"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type DeclarationResponse struct {
	ID               uuid.UUID     `json:"id"`
	UserID           uuid.UUID     `json:"user_id"`
	DocumentTypeID   int64         `json:"document_type_id"`
	DocumentType     string        `json:"document_type"`
	IncidentDate     models.Date   `json:"incident_date"`
	IncidentDateFR   string        `json:"incident_date_fr"`
	IncidentLocation string        `json:"incident_location"`
	Description      string        `json:"description"`
	Status           models.Status `json:"status"`
	StatusColor      string        `json:"status_color"`
	Resolved         bool          `json:"resolved"`
	ImageURL         *string       `json:"image_url"`
	CreatedAt        time.Time     `json:"created_at"`
	OwnerName        string        `json:"owner_name,omitempty"`
}

type DeclarationDetailResponse struct {
	DeclarationResponse
	CanMarkFound bool `json:"can_mark_found"`
}

type DeclarationListResponse struct {
	Declarations []DeclarationResponse `json:"declarations"`
	Total        int                   `json:"total"`
}

type DocumentTypeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
