package export

import (
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/xuri/excelize/v2"

	"attendancetracker/internal/attendance"
)

// SheetName is the worksheet holding the records.
const SheetName = "Attendance Records"

var columnWidths = []float64{20, 25, 20, 20}

// Spreadsheet writes records as an xlsx workbook. Signatures are left out.
func Spreadsheet(w io.Writer, records []attendance.Record, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	if err := writeSheet(f, SheetName, rows(records, loc)); err != nil {
		return err
	}
	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", "D1", bold); err != nil {
		return err
	}
	return f.Write(w)
}

// writeSheet writes a header row from the excel tags of data's element type and one row
// per element. The header is written even when data is empty.
func writeSheet(f *excelize.File, sheet string, data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("data %T is not a slice", data)
	}
	elemType := v.Type().Elem()
	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("data %T is not a slice of structs", data)
	}

	var cols []int
	for i := 0; i < elemType.NumField(); i++ {
		field := elemType.Field(i)
		tag := field.Tag.Get("excel")
		if tag == "-" || field.PkgPath != "" {
			continue
		}
		if tag == "" {
			tag = field.Name
		}
		cols = append(cols, i)
		cell, err := excelize.CoordinatesToCellName(len(cols), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, tag); err != nil {
			return err
		}
	}

	for r := 0; r < v.Len(); r++ {
		elem := v.Index(r)
		for c, fieldIndex := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, elem.Field(fieldIndex).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}
