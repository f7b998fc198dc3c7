package autoclose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wcc-tools/mentorsync/internal/responses"
	"github.com/wcc-tools/mentorsync/internal/roster"
)

const (
	missingResponseSourceMessageConstant    = "response source not configured"
	timezoneResolutionErrorTemplateConstant = "failed to resolve timezone %s: %w"
	responseLoadErrorTemplateConstant       = "failed to load responses: %w"
	rosterReadErrorTemplateConstant         = "failed to read roster %s: %w"
	rosterParseErrorTemplateConstant        = "failed to parse roster %s: %w"
	rosterWriteErrorTemplateConstant        = "failed to write roster %s: %w"
	droppedTimestampsMessageConstant        = "Dropped responses with unparseable timestamps"
	noApplicationsMessageConstant           = "No applications inside the month window, nothing to do"
	nameCollisionMessageConstant            = "Distinct mentor names collide after normalization"
	skippedMentorMessageConstant            = "Skipping counted mentor"
	mentorUnchangedMessageConstant          = "Mentor capacity unchanged"
	noMentorsAtCapacityMessageConstant      = "No mentors reached capacity"
	selectedMentorMissingMessageConstant    = "Selected mentor has no patchable roster block"
	mentorClosedMessageConstant             = "Closed mentor capacity for the month"
	rosterAlreadyCurrentMessageConstant     = "Roster already up to date"
	dryRunMessageConstant                   = "Dry run, leaving roster untouched"
	rosterUpdatedMessageConstant            = "Roster updated"
	logFieldMonthConstant                   = "month"
	logFieldMentorConstant                  = "mentor"
	logFieldReasonConstant                  = "reason"
	logFieldApplicationsConstant            = "applications"
	logFieldHoursConstant                   = "hours"
	logFieldMonthAvailableConstant          = "month_available"
	logFieldDroppedRowsConstant             = "dropped_rows"
	logFieldNormalizedIdentifierConstant    = "normalized_name"
	logFieldCollidingNamesConstant          = "colliding_names"
	logFieldRosterPathConstant              = "roster"
	logFieldClosedMentorsConstant           = "closed_mentors"
	defaultRosterFileModeConstant           = os.FileMode(0o644)
)

// FileSystem abstracts roster file access so runs can be tested without disk state.
type FileSystem interface {
	ReadFile(filePath string) ([]byte, error)
	WriteFile(filePath string, fileData []byte, fileMode os.FileMode) error
	FileMode(filePath string) (os.FileMode, error)
}

// Clock supplies the reference time bounding the month window.
type Clock func() time.Time

type osFileSystem struct{}

func (osFileSystem) ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

func (osFileSystem) WriteFile(filePath string, fileData []byte, fileMode os.FileMode) error {
	return os.WriteFile(filePath, fileData, fileMode)
}

func (osFileSystem) FileMode(filePath string) (os.FileMode, error) {
	fileInformation, statError := os.Stat(filePath)
	if statError != nil {
		return 0, statError
	}
	return fileInformation.Mode().Perm(), nil
}

// ServiceDependencies carries the collaborators required to construct a Service.
type ServiceDependencies struct {
	Logger         *zap.Logger
	ResponseSource responses.Source
	FileSystem     FileSystem
	Clock          Clock
}

// RunOptions parameterizes a single auto-close pass.
type RunOptions struct {
	RosterPath    string
	TimezoneName  string
	MonthOverride int
	DryRun        bool
}

// RunResult summarizes the outcome of one pass.
type RunResult struct {
	MonthNumber    int
	ClosedMentors  []string
	MissingMentors []string
	RosterChanged  bool
}

// Service evaluates the response feed against the roster and closes exhausted mentors.
type Service struct {
	logger         *zap.Logger
	responseSource responses.Source
	fileSystem     FileSystem
	clock          Clock
}

// NewService constructs a Service, defaulting the filesystem, clock, and logger.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.ResponseSource == nil {
		return nil, errors.New(missingResponseSourceMessageConstant)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = osFileSystem{}
	}

	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		logger:         logger,
		responseSource: dependencies.ResponseSource,
		fileSystem:     fileSystem,
		clock:          clock,
	}, nil
}

// Run executes one auto-close pass. Per-mentor anomalies are logged and
// skipped; only unusable configuration, roster I/O, and source I/O escalate.
func (service *Service) Run(executionContext context.Context, options RunOptions) (RunResult, error) {
	location, locationError := time.LoadLocation(options.TimezoneName)
	if locationError != nil {
		return RunResult{}, fmt.Errorf(timezoneResolutionErrorTemplateConstant, options.TimezoneName, locationError)
	}

	window := responses.CurrentMonthWindow(service.clock().In(location))
	monthNumber := window.MonthNumber()
	if options.MonthOverride >= 1 && options.MonthOverride <= 12 {
		monthNumber = options.MonthOverride
	}

	result := RunResult{MonthNumber: monthNumber}

	feedRows, loadError := service.responseSource.Load(executionContext)
	if loadError != nil {
		return RunResult{}, fmt.Errorf(responseLoadErrorTemplateConstant, loadError)
	}

	applications, droppedRowCount := responses.ResolveTimestamps(feedRows, location)
	if droppedRowCount > 0 {
		service.logger.Warn(droppedTimestampsMessageConstant, zap.Int(logFieldDroppedRowsConstant, droppedRowCount))
	}

	windowApplications := responses.FilterToWindow(applications, window)
	firstApplications := responses.DeduplicateFirstApplications(windowApplications)
	countsByIdentifier := responses.CountByMentor(firstApplications)
	if len(countsByIdentifier) == 0 {
		service.logger.Info(noApplicationsMessageConstant, zap.Int(logFieldMonthConstant, monthNumber))
		return result, nil
	}

	rosterData, readError := service.fileSystem.ReadFile(options.RosterPath)
	if readError != nil {
		return RunResult{}, fmt.Errorf(rosterReadErrorTemplateConstant, options.RosterPath, readError)
	}

	mentorRecords, parseError := roster.ParseDocument(rosterData)
	if parseError != nil {
		return RunResult{}, fmt.Errorf(rosterParseErrorTemplateConstant, options.RosterPath, parseError)
	}

	rosterIndex, nameCollisions := roster.BuildIndex(mentorRecords)
	for _, nameCollision := range nameCollisions {
		service.logger.Warn(
			nameCollisionMessageConstant,
			zap.String(logFieldNormalizedIdentifierConstant, nameCollision.NormalizedIdentifier),
			zap.Strings(logFieldCollidingNamesConstant, nameCollision.DisplayNames),
		)
	}

	decision := roster.Decide(countsByIdentifier, monthNumber, rosterIndex)
	for _, skippedMentor := range decision.Skipped {
		service.logger.Warn(
			skippedMentorMessageConstant,
			zap.String(logFieldMentorConstant, skippedMentor.NormalizedIdentifier),
			zap.String(logFieldReasonConstant, string(skippedMentor.Reason)),
		)
	}
	for _, unchangedMentor := range decision.Unchanged {
		service.logger.Info(
			mentorUnchangedMessageConstant,
			zap.String(logFieldMentorConstant, unchangedMentor.NormalizedIdentifier),
			zap.Int(logFieldApplicationsConstant, unchangedMentor.AppliedCount),
			zap.Int(logFieldHoursConstant, unchangedMentor.Hours),
			zap.Bool(logFieldMonthAvailableConstant, unchangedMentor.MonthAvailable),
		)
	}

	if len(decision.Selected) == 0 {
		service.logger.Info(noMentorsAtCapacityMessageConstant, zap.Int(logFieldMonthConstant, monthNumber))
		return result, nil
	}

	patchResult := roster.Patch(string(rosterData), decision.SelectedDisplayNames(), monthNumber)
	result.ClosedMentors = patchResult.Changed
	result.MissingMentors = patchResult.Missing
	for _, missingMentor := range patchResult.Missing {
		service.logger.Warn(selectedMentorMissingMessageConstant, zap.String(logFieldMentorConstant, missingMentor))
	}
	for _, closedMentor := range patchResult.Changed {
		service.logger.Info(
			mentorClosedMessageConstant,
			zap.String(logFieldMentorConstant, closedMentor),
			zap.Int(logFieldMonthConstant, monthNumber),
		)
	}

	if patchResult.Text == string(rosterData) {
		service.logger.Info(rosterAlreadyCurrentMessageConstant, zap.String(logFieldRosterPathConstant, options.RosterPath))
		return result, nil
	}

	result.RosterChanged = true
	if options.DryRun {
		service.logger.Info(
			dryRunMessageConstant,
			zap.String(logFieldRosterPathConstant, options.RosterPath),
			zap.Strings(logFieldClosedMentorsConstant, patchResult.Changed),
		)
		return result, nil
	}

	rosterFileMode := defaultRosterFileModeConstant
	if resolvedFileMode, fileModeError := service.fileSystem.FileMode(options.RosterPath); fileModeError == nil {
		rosterFileMode = resolvedFileMode
	}

	writeError := service.fileSystem.WriteFile(options.RosterPath, []byte(patchResult.Text), rosterFileMode)
	if writeError != nil {
		return RunResult{}, fmt.Errorf(rosterWriteErrorTemplateConstant, options.RosterPath, writeError)
	}

	service.logger.Info(
		rosterUpdatedMessageConstant,
		zap.String(logFieldRosterPathConstant, options.RosterPath),
		zap.Strings(logFieldClosedMentorsConstant, patchResult.Changed),
	)
	return result, nil
}
