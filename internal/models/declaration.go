package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentType is the fixed catalogue of declarable documents.
type DocumentType int64

const (
	DocNationalID       DocumentType = 1
	DocPassport         DocumentType = 2
	DocDrivingLicense   DocumentType = 3
	DocBirthCertificate DocumentType = 4
	DocBankCard         DocumentType = 5
	DocOther            DocumentType = 6
)

var documentTypeNames = map[DocumentType]string{
	DocNationalID:       "National ID",
	DocPassport:         "Passport",
	DocDrivingLicense:   "Driving License",
	DocBirthCertificate: "Birth Certificate",
	DocBankCard:         "Bank Card",
	DocOther:            "Other",
}

// DocumentTypes lists the catalogue in form order.
var DocumentTypes = []DocumentType{
	DocNationalID, DocPassport, DocDrivingLicense, DocBirthCertificate, DocBankCard, DocOther,
}

func (d DocumentType) Name() string {
	if name, ok := documentTypeNames[d]; ok {
		return name
	}
	return "Unknown Document"
}

func (d DocumentType) Valid() bool {
	_, ok := documentTypeNames[d]
	return ok
}

// Status is the lifecycle tag of a declaration. Values read back from the
// database are kept verbatim even when they are not one of the known tags.
type Status string

const (
	StatusPending   Status = "EN_ATTENTE"
	StatusFound     Status = "RETROUVE"
	StatusTrouve    Status = "TROUVE"
	StatusValidated Status = "VALIDE"
	StatusRejected  Status = "REJETE"
)

const (
	ColorPending  = "#FF9800"
	ColorResolved = "#4CAF50"
	ColorRejected = "#F44336"
	ColorNeutral  = "#9E9E9E"
)

func (s Status) Known() bool {
	switch s {
	case StatusPending, StatusFound, StatusTrouve, StatusValidated, StatusRejected:
		return true
	}
	return false
}

// IsResolved is the display equivalence class: every "found" spelling counts.
func (s Status) IsResolved() bool {
	switch s {
	case StatusFound, StatusTrouve, StatusValidated:
		return true
	}
	return false
}

// CountsAsFound is the dashboard statistic: only RETROUVE counts, TROUVE and
// VALIDE do not.
func (s Status) CountsAsFound() bool {
	return s == StatusFound
}

func (s Status) Color() string {
	switch {
	case s == StatusPending:
		return ColorPending
	case s.IsResolved():
		return ColorResolved
	case s == StatusRejected:
		return ColorRejected
	}
	return ColorNeutral
}

// Declaration is one reported lost document.
type Declaration struct {
	ID               uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	DocumentTypeID   DocumentType `gorm:"not null" json:"document_type_id"`
	IncidentDate     Date         `gorm:"type:date;not null" json:"incident_date"`
	IncidentLocation string       `gorm:"size:255;not null" json:"incident_location"`
	Description      string       `gorm:"type:text" json:"description"`
	Status           Status       `gorm:"size:20;not null;default:'EN_ATTENTE'" json:"status"`
	ImageURL         *string      `gorm:"type:text" json:"image_url"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	Owner            *Profile     `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (Declaration) TableName() string {
	return "declarations"
}

func (d *Declaration) DocumentName() string {
	return d.DocumentTypeID.Name()
}

// HasImage reports whether a usable photo URL is attached.
func (d *Declaration) HasImage() bool {
	return d.ImageURL != nil && *d.ImageURL != ""
}

// SearchText returns the fields matched by the list search.
func (d Declaration) SearchText() []string {
	return []string{d.DocumentTypeID.Name(), d.IncidentLocation, d.Description}
}

// AdminDeclaration is a declaration as seen from the admin panel, with the
// owner's profile joined in.
type AdminDeclaration struct {
	Declaration
}

func (a AdminDeclaration) OwnerName() string {
	if a.Owner == nil || strings.TrimSpace(a.Owner.FullName) == "" {
		return "Unknown user"
	}
	return a.Owner.FullName
}

func (a AdminDeclaration) SearchText() []string {
	return append(a.Declaration.SearchText(), a.OwnerName())
}

// Record returns the plain declaration, promoted through AdminDeclaration.
func (d Declaration) Record() Declaration {
	return d
}
