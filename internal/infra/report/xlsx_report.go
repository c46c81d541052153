// Package report renders incharger reports as spreadsheets.
package report

import (
	"io"
	"time"

	"cleancity/internal/domain/entity"
	"cleancity/internal/domain/service"
	"cleancity/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Allotments"
	residentSheet = "Residents"
)

var summaryHeader = []string{
	"Allotment ID",
	"Street",
	"Date",
	"Time",
	"Labour",
	"Labour Phone",
	"Status",
	"Residents",
	"Pending",
	"Collected",
	"Acknowledged",
	"Confirmed",
	"Completed At",
}

var summaryWidths = []float64{38, 24, 12, 8, 20, 16, 22, 10, 10, 10, 12, 10, 22}

var residentHeader = []string{
	"Allotment ID",
	"User ID",
	"Username",
	"Address",
	"Today Status",
	"Labour Collected",
	"Acknowledged",
	"Confirmed",
	"Confirmed By",
}

var residentWidths = []float64{38, 20, 20, 32, 12, 16, 12, 10, 12}

type xlsxReportService struct{}

// NewXLSXReportService returns a ReportService that writes .xlsx workbooks
func NewXLSXReportService() service.ReportService {
	return &xlsxReportService{}
}

// WriteDailyReport writes a summary sheet with one row per allotment and a
// detail sheet with one row per resident entry.
func (s *xlsxReportService) WriteDailyReport(w io.Writer, incharger *entity.Incharger, date string, allotments []*entity.Allotment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	if _, err := f.NewSheet(residentSheet); err != nil {
		return errors.Wrap(err, "create resident sheet")
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "create header style")
	}

	if err := writeHeader(f, summarySheet, summaryHeader, summaryWidths, headerStyle); err != nil {
		return err
	}
	if err := writeHeader(f, residentSheet, residentHeader, residentWidths, headerStyle); err != nil {
		return err
	}

	residentRow := 2
	for i, a := range allotments {
		if err := writeRow(f, summarySheet, i+2, summaryValues(a)); err != nil {
			return err
		}

		for _, e := range a.LocationData {
			if err := writeRow(f, residentSheet, residentRow, residentValues(a, e)); err != nil {
				return err
			}
			residentRow++
		}
	}

	title := "Daily collection report " + date
	if incharger != nil {
		title += " - " + incharger.Name
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Creator: "cleancity",
	}); err != nil {
		return errors.Wrap(err, "set document properties")
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}

	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string, widths []float64, style int) error {
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "header cell name")
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return errors.Wrapf(err, "set header cell %s", cell)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return errors.Wrap(err, "column name")
		}
		if err := f.SetColWidth(sheet, name, name, widths[col]); err != nil {
			return errors.Wrap(err, "set column width")
		}
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return errors.Wrap(err, "header cell name")
	}

	return errors.WithStack(f.SetCellStyle(sheet, "A1", last, style))
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "row cell name")
	}

	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "write %s row %d", sheet, row)
	}

	return nil
}

func summaryValues(a *entity.Allotment) []any {
	var pending, collected, acknowledged, confirmed int
	for _, e := range a.LocationData {
		if e.Collectable() {
			pending++
		}
		if e.LabourCollected {
			collected++
		}
		if e.CollectionAcknowledged {
			acknowledged++
		}
		if e.CollectionConfirmed {
			confirmed++
		}
	}

	completedAt := ""
	if a.CompletedAt != nil {
		completedAt = a.CompletedAt.UTC().Format(time.RFC3339)
	}

	return []any{
		a.ID.String(),
		a.Street,
		a.Date,
		a.Time,
		a.LabourName,
		a.LabourPhoneNumber,
		a.Status.String(),
		len(a.LocationData),
		pending,
		collected,
		acknowledged,
		confirmed,
		completedAt,
	}
}

func residentValues(a *entity.Allotment, e entity.LocationEntry) []any {
	return []any{
		a.ID.String(),
		e.UserID,
		e.Username,
		e.UserAddress,
		string(e.TodayStatus),
		yesNo(e.LabourCollected),
		yesNo(e.CollectionAcknowledged),
		yesNo(e.CollectionConfirmed),
		string(e.ConfirmedBy),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}
