package reports

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/seplag/artistalbum_backend/models"
)

// WriteRegionalWorkbook streams an xlsx listing of the given rows to w,
// one row per regional, retired rows included when the caller passes
// them.
func WriteRegionalWorkbook(w http.ResponseWriter, rows []*models.Regional, filename string) error {
	f := excelize.NewFile()
	sheet := "Sheet1"

	f.SetCellValue(sheet, "A1", "Id")
	f.SetCellValue(sheet, "B1", "Name")
	f.SetCellValue(sheet, "C1", "External Code")
	f.SetCellValue(sheet, "D1", "Active")
	f.SetCellValue(sheet, "E1", "Created At")
	f.SetCellValue(sheet, "F1", "Updated At")

	for i, row := range rows {
		line := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+line, row.ID)
		f.SetCellValue(sheet, "B"+line, row.Name)
		if row.ExternalCode != nil {
			f.SetCellValue(sheet, "C"+line, *row.ExternalCode)
		}
		if row.Active != nil {
			f.SetCellValue(sheet, "D"+line, *row.Active)
		}
		f.SetCellValue(sheet, "E"+line, row.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheet, "F"+line, row.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	return f.Write(w)
}
