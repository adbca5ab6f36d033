package dto

import "github.com/google/uuid"

type StatisticsResponse struct {
	Total           int `json:"total"`
	Found           int `json:"found"`
	Pending         int `json:"pending"`
	Lost            int `json:"lost"`
	FoundPercentage int `json:"found_percentage"`
}

type LocationResponse struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type DashboardResponse struct {
	Statistics    StatisticsResponse    `json:"statistics"`
	TopLocations  []LocationResponse    `json:"top_locations"`
	RecentPending []DeclarationResponse `json:"recent_pending"`
}

type UserActivityResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Count        int       `json:"count"`
	LastActivity string    `json:"last_activity"`
}

type UsersResponse struct {
	Users []UserActivityResponse `json:"users"`
	Total int                    `json:"total"`
}

type DeleteUserDataResponse struct {
	Deleted int64 `json:"deleted"`
}
