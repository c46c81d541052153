package service

import (
	"io"

	"cleancity/internal/domain/entity"
)

// ReportService renders allotment reports for inchargers.
type ReportService interface {
	// WriteDailyReport writes one spreadsheet row per allotment.
	WriteDailyReport(w io.Writer, incharger *entity.Incharger, date string, allotments []*entity.Allotment) error
}
