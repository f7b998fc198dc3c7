package responses

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

const (
	timestampColumnNameConstant  = "timestamp"
	menteeColumnNameConstant     = "mentee_name"
	mentorColumnNameConstant     = "mentor_name"
	emailColumnNameConstant      = "email"
	csvOpenErrorTemplateConstant = "failed to open response fixture: %w"
	csvReadErrorTemplateConstant = "failed to read response fixture: %w"
	csvMissingColumnsTemplate    = "response fixture missing required columns: %s"
	missingColumnListSeparator   = ", "
)

// CSVSource loads responses from a local CSV fixture file. The fixture must
// carry timestamp, mentee_name, mentor_name, and email columns.
type CSVSource struct {
	FilePath string
}

// Load reads and maps every data row of the fixture.
func (source CSVSource) Load(executionContext context.Context) ([]Row, error) {
	fixtureFile, openError := os.Open(source.FilePath)
	if openError != nil {
		return nil, fmt.Errorf(csvOpenErrorTemplateConstant, openError)
	}
	defer fixtureFile.Close()

	csvReader := csv.NewReader(fixtureFile)
	csvReader.FieldsPerRecord = -1
	csvRecords, readError := csvReader.ReadAll()
	if readError != nil {
		return nil, fmt.Errorf(csvReadErrorTemplateConstant, readError)
	}

	if len(csvRecords) == 0 {
		return nil, nil
	}

	columnIndexes := make(map[string]int, len(csvRecords[0]))
	for columnIndex, columnName := range csvRecords[0] {
		columnIndexes[strings.ToLower(strings.TrimSpace(columnName))] = columnIndex
	}

	requiredColumns := []string{timestampColumnNameConstant, menteeColumnNameConstant, mentorColumnNameConstant, emailColumnNameConstant}
	var missingColumns []string
	for _, requiredColumn := range requiredColumns {
		if _, columnPresent := columnIndexes[requiredColumn]; !columnPresent {
			missingColumns = append(missingColumns, requiredColumn)
		}
	}
	if len(missingColumns) > 0 {
		return nil, fmt.Errorf(csvMissingColumnsTemplate, strings.Join(missingColumns, missingColumnListSeparator))
	}

	rows := make([]Row, 0, len(csvRecords)-1)
	for _, csvRecord := range csvRecords[1:] {
		rows = append(rows, Row{
			Timestamp:  columnValue(csvRecord, columnIndexes[timestampColumnNameConstant]),
			MenteeName: columnValue(csvRecord, columnIndexes[menteeColumnNameConstant]),
			MentorName: columnValue(csvRecord, columnIndexes[mentorColumnNameConstant]),
			Email:      columnValue(csvRecord, columnIndexes[emailColumnNameConstant]),
		})
	}

	return rows, nil
}

func columnValue(csvRecord []string, columnIndex int) string {
	if columnIndex < 0 || columnIndex >= len(csvRecord) {
		return ""
	}
	return csvRecord[columnIndex]
}
