package services

import "strings"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type place struct {
	name string
	at   LatLng
}

// Geocoder resolves free-text locations against a fixed list of Ivorian
// municipalities. Entries are checked in order, so Abidjan communes come
// before the city itself and short names come last.
type Geocoder struct {
	places []place
}

func NewGeocoder() *Geocoder {
	return &Geocoder{places: []place{
		{"cocody", LatLng{5.3545, -3.9870}},
		{"yopougon", LatLng{5.3454, -4.0760}},
		{"abobo", LatLng{5.4190, -4.0200}},
		{"adjamé", LatLng{5.3670, -4.0190}},
		{"adjame", LatLng{5.3670, -4.0190}},
		{"plateau", LatLng{5.3250, -4.0200}},
		{"marcory", LatLng{5.3030, -3.9830}},
		{"treichville", LatLng{5.2920, -4.0080}},
		{"koumassi", LatLng{5.2960, -3.9510}},
		{"port-bouët", LatLng{5.2560, -3.9260}},
		{"port-bouet", LatLng{5.2560, -3.9260}},
		{"port bouet", LatLng{5.2560, -3.9260}},
		{"attécoubé", LatLng{5.3350, -4.0400}},
		{"attecoube", LatLng{5.3350, -4.0400}},
		{"bingerville", LatLng{5.3550, -3.8850}},
		{"anyama", LatLng{5.4940, -4.0520}},
		{"songon", LatLng{5.3300, -4.2600}},
		{"abidjan", LatLng{5.3600, -4.0083}},
		{"grand-bassam", LatLng{5.2118, -3.7388}},
		{"grand bassam", LatLng{5.2118, -3.7388}},
		{"yamoussoukro", LatLng{6.8276, -5.2893}},
		{"bouaké", LatLng{7.6900, -5.0300}},
		{"bouake", LatLng{7.6900, -5.0300}},
		{"san-pédro", LatLng{4.7485, -6.6363}},
		{"san-pedro", LatLng{4.7485, -6.6363}},
		{"san pedro", LatLng{4.7485, -6.6363}},
		{"daloa", LatLng{6.8774, -6.4502}},
		{"korhogo", LatLng{9.4580, -5.6296}},
		{"gagnoa", LatLng{6.1319, -5.9506}},
		{"man", LatLng{7.4125, -7.5538}},
	}}
}

// Geocode returns the coordinates for location. An exact case-insensitive
// match wins. Otherwise the first entry where either string contains the
// other is used. ok is false for blank or unknown input.
func (g *Geocoder) Geocode(location string) (LatLng, bool) {
	q := strings.ToLower(strings.TrimSpace(location))
	if q == "" {
		return LatLng{}, false
	}

	for _, p := range g.places {
		if p.name == q {
			return p.at, true
		}
	}
	for _, p := range g.places {
		if strings.Contains(q, p.name) || strings.Contains(p.name, q) {
			return p.at, true
		}
	}
	return LatLng{}, false
}
