// Package export renders the inventory as an Excel workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/crucial707/gearbox/internal/models"
)

const (
	EquipmentSheet   = "Equipment"
	MaintenanceSheet = "Maintenance"

	// ContentType is the MIME type of the workbook WriteEquipment produces.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	equipmentHeader   = []interface{}{"ID", "Name", "Brand", "Category", "Status", "Purchase date", "Open issues"}
	maintenanceHeader = []interface{}{"Equipment ID", "Equipment", "Log ID", "Reported", "Reported by", "Description", "Resolved"}
)

// WriteEquipment writes a workbook with one row per item on the Equipment
// sheet and one row per maintenance log on the Maintenance sheet.
func WriteEquipment(w io.Writer, items []models.Equipment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EquipmentSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(MaintenanceSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	if err := f.SetSheetRow(EquipmentSheet, "A1", &equipmentHeader); err != nil {
		return err
	}
	if err := f.SetSheetRow(MaintenanceSheet, "A1", &maintenanceHeader); err != nil {
		return err
	}

	logRow := 2
	for i, e := range items {
		open := 0
		for _, l := range e.Logs {
			if !l.Resolved() {
				open++
			}
		}
		row := []interface{}{e.ID, e.Name, e.Brand, e.Category, string(e.Status), e.PurchaseDate, open}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(EquipmentSheet, cell, &row); err != nil {
			return fmt.Errorf("equipment row %d: %w", i+2, err)
		}

		for _, l := range e.Logs {
			resolved := ""
			if l.ResolvedAt != nil {
				resolved = l.ResolvedAt.UTC().Format(time.RFC3339)
			}
			row := []interface{}{e.ID, e.Name, l.ID, l.Date.UTC().Format(time.RFC3339), l.ReportedBy, l.Description, resolved}
			cell, _ := excelize.CoordinatesToCellName(1, logRow)
			if err := f.SetSheetRow(MaintenanceSheet, cell, &row); err != nil {
				return fmt.Errorf("maintenance row %d: %w", logRow, err)
			}
			logRow++
		}
	}

	return f.Write(w)
}
