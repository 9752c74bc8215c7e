package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/models"
)

func TestRenderCSVClassSummary(t *testing.T) {
	summary := &models.ClassReportSummary{Students: []models.ClassReportRow{
		{Rank: 1, StudentID: "s-1", StudentName: "Awa Diop", Average: 15.5, Status: models.ReportCardStatusPublished},
		{Rank: 2, StudentID: "s-2", StudentName: "Malik; Sow", Average: 12, Status: models.ReportCardStatusDraft},
	}}

	out, err := RenderCSV(ClassSummaryDataset(summary))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "rang;eleve_id;eleve;moyenne;statut", lines[0])
	assert.Equal(t, "1;s-1;Awa Diop;15.50;PUBLISHED", lines[1])
	assert.Equal(t, `2;s-2;"Malik; Sow";12.00;DRAFT`, lines[2])
}

func TestRenderCSVRejectsRaggedRows(t *testing.T) {
	_, err := RenderCSV(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}}})
	assert.Error(t, err)
	_, err = RenderCSV(Dataset{})
	assert.Error(t, err)
}

func TestRenderBulletinProducesPDF(t *testing.T) {
	class := "6e A"
	doc := &models.ReportCardDocument{
		Card: models.ReportCardDetail{
			ReportCard:       models.ReportCard{Average: 13.25, Appreciation: "Élève sérieux", Status: models.ReportCardStatusPublished},
			StudentFirstName: "Awa",
			StudentLastName:  "Diop",
			ClassName:        &class,
			PeriodName:       "Trimestre 1",
			SchoolYear:       "2025-2026",
		},
		Courses:     []models.CourseAverage{{CourseName: "Mathématiques", Coefficient: 4, Average: 14}},
		GeneratedAt: time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
	}

	out, err := RenderBulletin(doc, "Lycée Senghor")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = RenderBulletin(nil, "x")
	assert.Error(t, err)
}
