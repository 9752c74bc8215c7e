// Package export renders report cards for download.
package export

import (
	"strconv"

	"github.com/noah-isme/school-admin-api/internal/models"
)

// Dataset is a table with named columns.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// ClassSummaryDataset lays out a class ranking, one row per student.
func ClassSummaryDataset(summary *models.ClassReportSummary) Dataset {
	data := Dataset{Headers: []string{"rang", "eleve_id", "eleve", "moyenne", "statut"}}
	for _, row := range summary.Students {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(row.Rank),
			row.StudentID,
			row.StudentName,
			formatAverage(row.Average),
			string(row.Status),
		})
	}
	return data
}

func formatAverage(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
