package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const pageWidth = 190.0

// RenderBulletin prints one report card: header, per-course averages, general average,
// appreciation and status.
func RenderBulletin(doc *models.ReportCardDocument, schoolName string) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil report card document")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 15, 10)
	pdf.SetTitle(tr("Bulletin scolaire"), false)
	pdf.AddPage()

	card := doc.Card
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(schoolName)), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Bulletin - %s (%s)", card.PeriodName, card.SchoolYear)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 7, tr("Élève : "+strings.TrimSpace(card.StudentFirstName+" "+card.StudentLastName)), "", 1, "", false, 0, "")
	if card.ClassName != nil {
		pdf.CellFormat(0, 7, tr("Classe : "+*card.ClassName), "", 1, "", false, 0, "")
	}
	pdf.Ln(3)

	widths := []float64{100, 30, 60}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Matière", "Coefficient", "Moyenne /20"} {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, course := range doc.Courses {
		pdf.CellFormat(widths[0], 7, tr(course.CourseName), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 7, formatAverage(course.Coefficient), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, formatAverage(course.Average), "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	if len(doc.Courses) == 0 {
		pdf.CellFormat(pageWidth, 7, tr("Aucune note sur la période"), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, tr("Moyenne générale : "+formatAverage(card.Average)), "", 1, "", false, 0, "")
	if card.Appreciation != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(pageWidth, 6, tr("Appréciation : "+card.Appreciation), "1", "", false)
	}
	pdf.Ln(2)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Statut : %s - édité le %s", card.Status, doc.GeneratedAt.Format("02/01/2006 15:04"))), "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render bulletin pdf: %w", err)
	}
	return buf.Bytes(), nil
}
