package services

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
)

const UnspecifiedLocation = "Unspecified"

// Record is implemented by models.Declaration and models.AdminDeclaration.
type Record interface {
	SearchText() []string
	Record() models.Declaration
}

// Filter keeps the records whose searchable fields contain query, ignoring
// case. A blank query returns all unchanged. The input is never modified.
func Filter[T Record](all []T, query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}

	out := make([]T, 0, len(all))
	for _, d := range all {
		for _, field := range d.SearchText() {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

type Statistics struct {
	Total   int `json:"total"`
	Found   int `json:"found"`
	Pending int `json:"pending"`
	Lost    int `json:"lost"`
}

// FoundPercentage is the rounded share of found records, 0 when empty.
func (s Statistics) FoundPercentage() int {
	if s.Total == 0 {
		return 0
	}
	return percentage(s.Found, s.Total)
}

// DeriveStatistics counts with exact status matches. TROUVE and VALIDE are
// not counted as found here even though they display as resolved.
func DeriveStatistics[T Record](all []T) Statistics {
	stats := Statistics{Total: len(all)}
	for _, r := range all {
		d := r.Record()
		if d.Status.CountsAsFound() {
			stats.Found++
		}
		if d.Status == models.StatusPending {
			stats.Pending++
		}
	}
	stats.Lost = stats.Total - stats.Found
	return stats
}

type LocationCount struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// DeriveTopLocations ranks exact location strings by frequency. Ties keep
// the order in which locations were first seen.
func DeriveTopLocations[T Record](all []T, limit int) []LocationCount {
	if len(all) == 0 {
		return []LocationCount{}
	}

	index := make(map[string]int)
	var ranked []LocationCount
	for _, r := range all {
		name := r.Record().IncidentLocation
		if strings.TrimSpace(name) == "" {
			name = UnspecifiedLocation
		}
		i, ok := index[name]
		if !ok {
			i = len(ranked)
			index[name] = i
			ranked = append(ranked, LocationCount{Name: name})
		}
		ranked[i].Count++
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Percentage = percentage(ranked[i].Count, len(all))
	}
	return ranked
}

// RecentPending returns the first n EN_ATTENTE records in input order.
func RecentPending[T Record](all []T, n int) []T {
	out := make([]T, 0, n)
	for _, r := range all {
		if len(out) == n {
			break
		}
		if r.Record().Status == models.StatusPending {
			out = append(out, r)
		}
	}
	return out
}

type UserSummary struct {
	UserID       uuid.UUID   `json:"user_id"`
	Name         string      `json:"name"`
	Count        int         `json:"count"`
	LastActivity models.Date `json:"last_activity"`
}

// SummarizeUsers groups records by owner, most active first.
func SummarizeUsers[T Record](all []T) []UserSummary {
	index := make(map[uuid.UUID]int)
	var users []UserSummary
	for _, r := range all {
		d := r.Record()
		i, ok := index[d.UserID]
		if !ok {
			i = len(users)
			index[d.UserID] = i
			users = append(users, UserSummary{UserID: d.UserID, Name: ownerName(r)})
		}
		users[i].Count++
		if d.IncidentDate > users[i].LastActivity {
			users[i].LastActivity = d.IncidentDate
		}
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Count > users[j].Count
	})
	if users == nil {
		return []UserSummary{}
	}
	return users
}

func ownerName(r interface{}) string {
	if named, ok := r.(interface{ OwnerName() string }); ok {
		return named.OwnerName()
	}
	return "Unknown user"
}

func percentage(part, total int) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
