package services

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"github.com/pertepiece/backend/internal/models"
)

const descriptionPreviewRunes = 30

// ReportService renders the monthly admin report as a PDF.
type ReportService struct {
	compress bool
}

func NewReportService() *ReportService {
	return &ReportService{compress: true}
}

// ReportFilename is rapport-pertepiece-YYYY-MM-DD.pdf for the export date.
func ReportFilename(exportDate models.Date) string {
	return fmt.Sprintf("rapport-pertepiece-%s.pdf", exportDate)
}

// Write renders the report for decls to w. Statistics use the exact
// RETROUVE match, and only RETROUVE records are listed.
func (s *ReportService) Write(w io.Writer, decls []models.AdminDeclaration, exportDate models.Date) error {
	stats := DeriveStatistics(decls)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(s.compress)
	pdf.SetTitle("Rapport Mensuel - PertePiece", true)
	pdf.SetAutoPageBreak(true, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(156, 163, 175)
		pdf.CellFormat(0, 10, "PertePiece Admin - Rapport automatique", "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(79, 70, 229)
	pdf.CellFormat(0, 12, "Rapport Mensuel - PertePiece", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(107, 114, 128)
	pdf.CellFormat(0, 6, tr("Généré le "+FormatDateFR(exportDate)), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(17, 24, 39)
	pdf.CellFormat(0, 8, tr("Résumé des statistiques"), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(55, 65, 81)
	for _, line := range []string{
		fmt.Sprintf("• Total des déclarations: %d", stats.Total),
		fmt.Sprintf("• Objets retrouvés: %d", stats.Found),
		fmt.Sprintf("• En attente: %d", stats.Pending),
	} {
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	var found []models.AdminDeclaration
	for _, d := range decls {
		if d.Status.CountsAsFound() {
			found = append(found, d)
		}
	}

	if len(found) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 8, tr("Aucun objet retrouvé pour le moment."), "", 1, "L", false, 0, "")
	} else {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(17, 24, 39)
		pdf.CellFormat(0, 8, tr("Objets Retrouvés"), "", 1, "L", false, 0, "")
		pdf.Ln(2)
		writeFoundTable(pdf, tr, found)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func writeFoundTable(pdf *fpdf.Fpdf, tr func(string) string, found []models.AdminDeclaration) {
	widths := []float64{40, 28, 50, 64}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(79, 70, 229)
	pdf.SetTextColor(255, 255, 255)
	for i, head := range []string{"Type", "Date", "Lieu", "Description"} {
		pdf.CellFormat(widths[i], 8, head, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(55, 65, 81)
	for row, d := range found {
		fill := row%2 == 1
		pdf.SetFillColor(249, 250, 251)
		location := d.IncidentLocation
		if location == "" {
			location = "-"
		}
		cells := []string{
			d.DocumentTypeID.Name(),
			FormatDateFR(d.IncidentDate),
			location,
			previewDescription(d.Description),
		}
		for i, text := range cells {
			pdf.CellFormat(widths[i], 7, tr(text), "", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
}

// previewDescription keeps the first 30 characters and marks the cut.
func previewDescription(description string) string {
	if description == "" {
		return "-"
	}
	if utf8.RuneCountInString(description) <= descriptionPreviewRunes {
		return description
	}
	runes := []rune(description)
	return string(runes[:descriptionPreviewRunes]) + "..."
}
