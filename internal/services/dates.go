package services

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pertepiece/backend/internal/models"
)

var incidentDatePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)

// NormalizeIncidentDate turns D/M/YYYY or D-M-YYYY into a zero-padded
// YYYY-MM-DD. Dates that do not exist on the calendar are rejected.
func NormalizeIncidentDate(input string) (models.Date, error) {
	m := incidentDatePattern.FindStringSubmatch(input)
	if m == nil {
		return "", &ValidationError{Field: "incident_date", Message: "invalid date format, expected DD/MM/YYYY"}
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	canonical := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	if _, err := time.Parse(models.DateLayout, canonical); err != nil {
		return "", &ValidationError{Field: "incident_date", Message: "date does not exist"}
	}
	return models.Date(canonical), nil
}

// FormatDateFR renders a stored date as DD/MM/YYYY, or "-" when absent.
func FormatDateFR(d models.Date) string {
	t, ok := d.Time()
	if !ok {
		return "-"
	}
	return t.Format("02/01/2006")
}
