package handlers

import (
	"github.com/pertepiece/backend/internal/dto"
	"github.com/pertepiece/backend/internal/models"
	"github.com/pertepiece/backend/internal/services"
)

func declarationResponse(d models.Declaration) dto.DeclarationResponse {
	return dto.DeclarationResponse{
		ID:               d.ID,
		UserID:           d.UserID,
		DocumentTypeID:   int64(d.DocumentTypeID),
		DocumentType:     d.DocumentName(),
		IncidentDate:     d.IncidentDate,
		IncidentDateFR:   services.FormatDateFR(d.IncidentDate),
		IncidentLocation: d.IncidentLocation,
		Description:      d.Description,
		Status:           d.Status,
		StatusColor:      d.Status.Color(),
		Resolved:         d.Status.IsResolved(),
		ImageURL:         d.ImageURL,
		CreatedAt:        d.CreatedAt,
	}
}

func adminDeclarationResponse(d models.AdminDeclaration) dto.DeclarationResponse {
	resp := declarationResponse(d.Declaration)
	resp.OwnerName = d.OwnerName()
	return resp
}

func declarationList(decls []models.Declaration) dto.DeclarationListResponse {
	out := make([]dto.DeclarationResponse, len(decls))
	for i, d := range decls {
		out[i] = declarationResponse(d)
	}
	return dto.DeclarationListResponse{Declarations: out, Total: len(out)}
}

func adminDeclarationList(decls []models.AdminDeclaration) dto.DeclarationListResponse {
	out := make([]dto.DeclarationResponse, len(decls))
	for i, d := range decls {
		out[i] = adminDeclarationResponse(d)
	}
	return dto.DeclarationListResponse{Declarations: out, Total: len(out)}
}

func statisticsResponse(s services.Statistics) dto.StatisticsResponse {
	return dto.StatisticsResponse{
		Total:           s.Total,
		Found:           s.Found,
		Pending:         s.Pending,
		Lost:            s.Lost,
		FoundPercentage: s.FoundPercentage(),
	}
}

func locationResponses(locations []services.LocationCount) []dto.LocationResponse {
	out := make([]dto.LocationResponse, len(locations))
	for i, l := range locations {
		out[i] = dto.LocationResponse{Name: l.Name, Count: l.Count, Percentage: l.Percentage}
	}
	return out
}

func userActivityResponses(users []services.UserSummary) []dto.UserActivityResponse {
	out := make([]dto.UserActivityResponse, len(users))
	for i, u := range users {
		out[i] = dto.UserActivityResponse{
			UserID:       u.UserID,
			Name:         u.Name,
			Count:        u.Count,
			LastActivity: services.FormatDateFR(u.LastActivity),
		}
	}
	return out
}

func documentTypeResponses() []dto.DocumentTypeResponse {
	out := make([]dto.DocumentTypeResponse, len(models.DocumentTypes))
	for i, t := range models.DocumentTypes {
		out[i] = dto.DocumentTypeResponse{ID: int64(t), Name: t.Name()}
	}
	return out
}
