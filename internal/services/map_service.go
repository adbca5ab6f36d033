package services

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pertepiece/backend/internal/models"
	"github.com/uber/h3-go/v4"
)

// ClusterResolution is the H3 resolution used to group markers, roughly
// the size of an Abidjan commune district.
const ClusterResolution = 7

type Marker struct {
	ID           uuid.UUID     `json:"id"`
	DocumentType string        `json:"document_type"`
	Location     string        `json:"location"`
	Date         string        `json:"date"`
	Status       models.Status `json:"status"`
	Color        string        `json:"color"`
	Position     LatLng        `json:"position"`
	Cell         string        `json:"cell"`
}

type Cluster struct {
	Cell   string `json:"cell"`
	Count  int    `json:"count"`
	Center LatLng `json:"center"`
}

type MapService struct {
	geocoder *Geocoder
}

func NewMapService(geocoder *Geocoder) *MapService {
	return &MapService{geocoder: geocoder}
}

// Markers builds one marker per declaration whose location geocodes.
// Declarations with unknown locations are left off the map.
func (s *MapService) Markers(decls []models.AdminDeclaration) []Marker {
	markers := make([]Marker, 0, len(decls))
	for _, d := range decls {
		pos, ok := s.geocoder.Geocode(d.IncidentLocation)
		if !ok {
			continue
		}
		cell := h3.LatLngToCell(h3.NewLatLng(pos.Lat, pos.Lng), ClusterResolution)
		markers = append(markers, Marker{
			ID:           d.ID,
			DocumentType: d.DocumentTypeID.Name(),
			Location:     d.IncidentLocation,
			Date:         FormatDateFR(d.IncidentDate),
			Status:       d.Status,
			Color:        d.Status.Color(),
			Position:     pos,
			Cell:         cell.String(),
		})
	}
	return markers
}

// Clusters counts markers per H3 cell, densest first. The center is the
// mean position of the markers in the cell.
func (s *MapService) Clusters(markers []Marker) []Cluster {
	index := make(map[string]int)
	var clusters []Cluster
	for _, m := range markers {
		i, ok := index[m.Cell]
		if !ok {
			i = len(clusters)
			index[m.Cell] = i
			clusters = append(clusters, Cluster{Cell: m.Cell})
		}
		c := &clusters[i]
		c.Count++
		n := float64(c.Count)
		c.Center.Lat += (m.Position.Lat - c.Center.Lat) / n
		c.Center.Lng += (m.Position.Lng - c.Center.Lng) / n
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Count > clusters[j].Count
	})
	if clusters == nil {
		return []Cluster{}
	}
	return clusters
}
