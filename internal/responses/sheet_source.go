package responses

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/wcc-tools/mentorsync/internal/utils"
)

const (
	sheetServiceErrorTemplateConstant    = "failed to initialize sheets client: %w"
	sheetMetadataErrorTemplateConstant   = "failed to describe spreadsheet %s: %w"
	sheetValuesErrorTemplateConstant     = "failed to read worksheet %s: %w"
	sheetMissingColumnsTemplateConstant  = "response sheet missing required columns: %s"
	sheetNoWorksheetsMessageConstant     = "spreadsheet has no worksheets"
	worksheetFallbackMessageConstant     = "worksheet not found, falling back to first sheet"
	worksheetRangeTemplateConstant       = "'%s'"
	logFieldWorksheetRequestedConstant   = "requested_worksheet"
	logFieldWorksheetResolvedConstant    = "resolved_worksheet"
	spreadsheetMetadataFieldMaskConstant = "sheets.properties.title"
)

var (
	timestampHeaderCandidates = []string{"timestamp"}
	menteeHeaderCandidates    = []string{"what is your full name", "mentee name"}
	mentorHeaderCandidates    = []string{"mentor's name", "mentor name"}
	emailHeaderCandidates     = []string{"what is your email address", "email"}
)

// SheetSource loads responses from a Google Sheets worksheet using a service
// account credentials file. Form headers are matched by candidate substrings
// so question rewording on the form does not break the feed.
type SheetSource struct {
	SpreadsheetID   string
	WorksheetTitle  string
	CredentialsFile string
	Logger          *zap.Logger
}

// feedColumns maps the response fields onto worksheet column positions.
type feedColumns struct {
	timestampIndex int
	menteeIndex    int
	mentorIndex    int
	emailIndex     int
}

// Load fetches the worksheet and maps its data rows. A missing header row
// yields an empty feed rather than an error.
func (source SheetSource) Load(executionContext context.Context) ([]Row, error) {
	sheetsService, serviceError := sheets.NewService(
		executionContext,
		option.WithCredentialsFile(source.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if serviceError != nil {
		return nil, fmt.Errorf(sheetServiceErrorTemplateConstant, serviceError)
	}

	worksheetTitle, titleError := source.resolveWorksheetTitle(executionContext, sheetsService)
	if titleError != nil {
		return nil, titleError
	}

	valueRange, valuesError := sheetsService.Spreadsheets.Values.
		Get(source.SpreadsheetID, fmt.Sprintf(worksheetRangeTemplateConstant, worksheetTitle)).
		Context(executionContext).
		Do()
	if valuesError != nil {
		return nil, fmt.Errorf(sheetValuesErrorTemplateConstant, worksheetTitle, valuesError)
	}

	if len(valueRange.Values) == 0 {
		return nil, nil
	}

	headerRow := stringCells(valueRange.Values[0])
	columns, columnsError := resolveFeedColumns(headerRow)
	if columnsError != nil {
		return nil, columnsError
	}

	rows := make([]Row, 0, len(valueRange.Values)-1)
	for _, valueCells := range valueRange.Values[1:] {
		dataCells := stringCells(valueCells)
		rows = append(rows, Row{
			Timestamp:  columnValue(dataCells, columns.timestampIndex),
			MenteeName: columnValue(dataCells, columns.menteeIndex),
			MentorName: columnValue(dataCells, columns.mentorIndex),
			Email:      columnValue(dataCells, columns.emailIndex),
		})
	}

	return rows, nil
}

func (source SheetSource) resolveWorksheetTitle(executionContext context.Context, sheetsService *sheets.Service) (string, error) {
	spreadsheet, metadataError := sheetsService.Spreadsheets.
		Get(source.SpreadsheetID).
		Fields(spreadsheetMetadataFieldMaskConstant).
		Context(executionContext).
		Do()
	if metadataError != nil {
		return "", fmt.Errorf(sheetMetadataErrorTemplateConstant, source.SpreadsheetID, metadataError)
	}

	if len(spreadsheet.Sheets) == 0 {
		return "", fmt.Errorf(sheetMetadataErrorTemplateConstant, source.SpreadsheetID, fmt.Errorf(sheetNoWorksheetsMessageConstant))
	}

	requestedTitle := strings.TrimSpace(source.WorksheetTitle)
	for _, worksheet := range spreadsheet.Sheets {
		if worksheet.Properties != nil && worksheet.Properties.Title == requestedTitle {
			return requestedTitle, nil
		}
	}

	fallbackTitle := spreadsheet.Sheets[0].Properties.Title
	source.logger().Warn(
		worksheetFallbackMessageConstant,
		zap.String(logFieldWorksheetRequestedConstant, requestedTitle),
		zap.String(logFieldWorksheetResolvedConstant, fallbackTitle),
	)
	return fallbackTitle, nil
}

func (source SheetSource) logger() *zap.Logger {
	if source.Logger == nil {
		return zap.NewNop()
	}
	return source.Logger
}

// resolveFeedColumns matches normalized worksheet headers against the known
// candidate substrings for each response field.
func resolveFeedColumns(headerRow []string) (feedColumns, error) {
	normalizedHeaders := make([]string, len(headerRow))
	for headerIndex, headerName := range headerRow {
		normalizedHeaders[headerIndex] = utils.NormalizeIdentifier(headerName)
	}

	columns := feedColumns{
		timestampIndex: findHeaderIndex(normalizedHeaders, timestampHeaderCandidates),
		menteeIndex:    findHeaderIndex(normalizedHeaders, menteeHeaderCandidates),
		mentorIndex:    findHeaderIndex(normalizedHeaders, mentorHeaderCandidates),
		emailIndex:     findHeaderIndex(normalizedHeaders, emailHeaderCandidates),
	}

	var missingColumns []string
	if columns.timestampIndex < 0 {
		missingColumns = append(missingColumns, timestampColumnNameConstant)
	}
	if columns.menteeIndex < 0 {
		missingColumns = append(missingColumns, menteeColumnNameConstant)
	}
	if columns.mentorIndex < 0 {
		missingColumns = append(missingColumns, mentorColumnNameConstant)
	}
	if columns.emailIndex < 0 {
		missingColumns = append(missingColumns, emailColumnNameConstant)
	}
	if len(missingColumns) > 0 {
		return feedColumns{}, fmt.Errorf(sheetMissingColumnsTemplateConstant, strings.Join(missingColumns, missingColumnListSeparator))
	}

	return columns, nil
}

func findHeaderIndex(normalizedHeaders []string, headerCandidates []string) int {
	for headerIndex, normalizedHeader := range normalizedHeaders {
		for _, headerCandidate := range headerCandidates {
			if strings.Contains(normalizedHeader, headerCandidate) {
				return headerIndex
			}
		}
	}
	return -1
}

func stringCells(valueCells []any) []string {
	stringValues := make([]string, len(valueCells))
	for cellIndex, cellValue := range valueCells {
		stringValues[cellIndex] = strings.TrimSpace(fmt.Sprint(cellValue))
	}
	return stringValues
}
