package bulk

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"

	"github.com/xuri/excelize/v2"
)

// ReadSheet returns the rows of the first worksheet of an .xlsx file, or of a .csv file.
// Spreadsheet cells are returned raw, so dates come back as Excel serial numbers.
// Failures are *errors2.ServerError with code ServerErrorSheetParseFail.
func ReadSheet(path string) ([][]string, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		err = fmt.Errorf("unsupported sheet format %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, &errors2.ServerError{Code: errors2.ServerErrorSheetParseFail, Summary: err.Error()}
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheet", filepath.Base(path))
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// cell returns the trimmed value at index i, or "" when the row is shorter.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
	"02/01/2006",
}

// parseDate accepts an Excel serial date or one of dateLayouts.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", value)
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM", "03:04 PM"}

// parseClock returns the time of day of an Excel day fraction or a clock string.
func parseClock(value string) (time.Duration, error) {
	if fraction, err := strconv.ParseFloat(value, 64); err == nil {
		if fraction < 0 || fraction >= 1 {
			return 0, fmt.Errorf("time of day %q out of range", value)
		}
		return (time.Duration(fraction*24*3600+0.5) * time.Second).Truncate(time.Second), nil
	}
	upper := strings.ToUpper(value)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("cannot parse time of day %q", value)
}

func parseFloat(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	return f, nil
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", value)
	}
	return b, nil
}

// parseID normalizes ids that a spreadsheet stored as numbers, such as "5.0" or "1.012345678E9".
// Plain digit strings are kept verbatim so leading zeros survive.
func parseID(value string) string {
	if !strings.ContainsAny(value, ".eE") {
		return value
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return value
}
