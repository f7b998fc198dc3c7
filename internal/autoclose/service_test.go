package autoclose_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wcc-tools/mentorsync/internal/autoclose"
	"github.com/wcc-tools/mentorsync/internal/responses"
)

const (
	serviceRosterPathConstant   = "_data/mentors.yml"
	serviceTimezoneNameConstant = "Europe/London"

	serviceRosterFixtureConstant = "- name: Ada L.\n" +
		"  hours: 1\n" +
		"  availability: [9, 10]\n" +
		"  sort: 10\n" +
		"- name: Grace H.\n" +
		"  hours: 3\n" +
		"  availability:\n" +
		"    - 9\n" +
		"    - 11\n"

	servicePatchedRosterConstant = "- name: Ada L.\n" +
		"  hours: 1\n" +
		"  availability: [10]\n" +
		"  sort: 100\n" +
		"- name: Grace H.\n" +
		"  hours: 3\n" +
		"  availability:\n" +
		"    - 9\n" +
		"    - 11\n"
)

type stubResponseSource struct {
	rows      []responses.Row
	loadError error
}

func (source stubResponseSource) Load(executionContext context.Context) ([]responses.Row, error) {
	return source.rows, source.loadError
}

type fakeFileSystem struct {
	files      map[string][]byte
	fileModes  map[string]os.FileMode
	writeCount int
	writeError error
}

func newFakeFileSystem() *fakeFileSystem {
	return &fakeFileSystem{files: map[string][]byte{}, fileModes: map[string]os.FileMode{}}
}

func (fileSystem *fakeFileSystem) ReadFile(filePath string) ([]byte, error) {
	fileData, filePresent := fileSystem.files[filePath]
	if !filePresent {
		return nil, os.ErrNotExist
	}
	return fileData, nil
}

func (fileSystem *fakeFileSystem) WriteFile(filePath string, fileData []byte, fileMode os.FileMode) error {
	if fileSystem.writeError != nil {
		return fileSystem.writeError
	}
	fileSystem.writeCount++
	fileSystem.files[filePath] = fileData
	fileSystem.fileModes[filePath] = fileMode
	return nil
}

func (fileSystem *fakeFileSystem) FileMode(filePath string) (os.FileMode, error) {
	fileMode, modePresent := fileSystem.fileModes[filePath]
	if !modePresent {
		return 0, os.ErrNotExist
	}
	return fileMode, nil
}

func septemberClock() autoclose.Clock {
	return func() time.Time {
		return time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC)
	}
}

func septemberFeedRows() []responses.Row {
	return []responses.Row{
		{Timestamp: "2025-09-10 10:00:00", MenteeName: "Mentee One", MentorName: "Ada L.", Email: "one@example.org"},
		{Timestamp: "2025-09-12 09:30:00", MenteeName: "Mentee One", MentorName: "Ada L.", Email: "ONE@example.org"},
		{Timestamp: "2025-08-20 10:00:00", MenteeName: "Mentee Two", MentorName: "Ada L.", Email: "two@example.org"},
		{Timestamp: "2025-09-11 16:00:00", MenteeName: "Mentee Three", MentorName: "Grace H.", Email: "three@example.org"},
	}
}

func newTestService(testInstance *testing.T, source responses.Source, fileSystem autoclose.FileSystem) *autoclose.Service {
	testInstance.Helper()
	service, serviceError := autoclose.NewService(autoclose.ServiceDependencies{
		Logger:         zap.NewNop(),
		ResponseSource: source,
		FileSystem:     fileSystem,
		Clock:          septemberClock(),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func defaultRunOptions() autoclose.RunOptions {
	return autoclose.RunOptions{
		RosterPath:   serviceRosterPathConstant,
		TimezoneName: serviceTimezoneNameConstant,
	}
}

func TestServiceClosesMentorAtCapacity(testInstance *testing.T) {
	fileSystem := newFakeFileSystem()
	fileSystem.files[serviceRosterPathConstant] = []byte(serviceRosterFixtureConstant)
	fileSystem.fileModes[serviceRosterPathConstant] = 0o600
	service := newTestService(testInstance, stubResponseSource{rows: septemberFeedRows()}, fileSystem)

	runResult, runError := service.Run(context.Background(), defaultRunOptions())

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 9, runResult.MonthNumber)
	require.Equal(testInstance, []string{"Ada L."}, runResult.ClosedMentors)
	require.Empty(testInstance, runResult.MissingMentors)
	require.True(testInstance, runResult.RosterChanged)
	require.Equal(testInstance, 1, fileSystem.writeCount)
	require.Equal(testInstance, servicePatchedRosterConstant, string(fileSystem.files[serviceRosterPathConstant]))
	require.Equal(testInstance, os.FileMode(0o600), fileSystem.fileModes[serviceRosterPathConstant])
}

func TestServiceDryRunReportsWithoutWriting(testInstance *testing.T) {
	fileSystem := newFakeFileSystem()
	fileSystem.files[serviceRosterPathConstant] = []byte(serviceRosterFixtureConstant)
	service := newTestService(testInstance, stubResponseSource{rows: septemberFeedRows()}, fileSystem)

	runOptions := defaultRunOptions()
	runOptions.DryRun = true
	runResult, runError := service.Run(context.Background(), runOptions)

	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{"Ada L."}, runResult.ClosedMentors)
	require.True(testInstance, runResult.RosterChanged)
	require.Zero(testInstance, fileSystem.writeCount)
	require.Equal(testInstance, serviceRosterFixtureConstant, string(fileSystem.files[serviceRosterPathConstant]))
}

func TestServiceEmptyFeedDoesNothing(testInstance *testing.T) {
	fileSystem := newFakeFileSystem()
	service := newTestService(testInstance, stubResponseSource{}, fileSystem)

	runResult, runError := service.Run(context.Background(), defaultRunOptions())

	require.NoError(testInstance, runError)
	require.Empty(testInstance, runResult.ClosedMentors)
	require.False(testInstance, runResult.RosterChanged)
	require.Zero(testInstance, fileSystem.writeCount)
}

func TestServiceUnknownMentorSkippedWithWarning(testInstance *testing.T) {
	fileSystem := newFakeFileSystem()
	fileSystem.files[serviceRosterPathConstant] = []byte(serviceRosterFixtureConstant)
	feedRows := []responses.Row{
		{Timestamp: "2025-09-10 10:00:00", MenteeName: "Mentee One", MentorName: "Nobody Known", Email: "one@example.org"},
	}

	observedCore, observedLogs := observer.New(zapcore.WarnLevel)
	service, serviceError := autoclose.NewService(autoclose.ServiceDependencies{
		Logger:         zap.New(observedCore),
		ResponseSource: stubResponseSource{rows: feedRows},
		FileSystem:     fileSystem,
		Clock:          septemberClock(),
	})
	require.NoError(testInstance, serviceError)

	runResult, runError := service.Run(context.Background(), defaultRunOptions())

	require.NoError(testInstance, runError)
	require.Empty(testInstance, runResult.ClosedMentors)
	require.False(testInstance, runResult.RosterChanged)
	require.Zero(testInstance, fileSystem.writeCount)

	warningEntries := observedLogs.FilterMessage("Skipping counted mentor").All()
	require.Len(testInstance, warningEntries, 1)
	require.Equal(testInstance, "nobody known", warningEntries[0].ContextMap()["mentor"])
}

func TestServiceMonthOverrideClosesFutureMonth(testInstance *testing.T) {
	fileSystem := newFakeFileSystem()
	fileSystem.files[serviceRosterPathConstant] = []byte(serviceRosterFixtureConstant)
	service := newTestService(testInstance, stubResponseSource{rows: septemberFeedRows()}, fileSystem)

	runOptions := defaultRunOptions()
	runOptions.MonthOverride = 10
	runResult, runError := service.Run(context.Background(), runOptions)

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 10, runResult.MonthNumber)
	require.Equal(testInstance, []string{"Ada L."}, runResult.ClosedMentors)

	expectedRoster := "- name: Ada L.\n" +
		"  hours: 1\n" +
		"  availability: [9]\n" +
		"  sort: 100\n" +
		"- name: Grace H.\n" +
		"  hours: 3\n" +
		"  availability:\n" +
		"    - 9\n" +
		"    - 11\n"
	require.Equal(testInstance, expectedRoster, string(fileSystem.files[serviceRosterPathConstant]))
}

func TestServiceSecondRunIsIdempotent(testInstance *testing.T) {
	fileSystem := newFakeFileSystem()
	fileSystem.files[serviceRosterPathConstant] = []byte(serviceRosterFixtureConstant)
	service := newTestService(testInstance, stubResponseSource{rows: septemberFeedRows()}, fileSystem)

	_, firstRunError := service.Run(context.Background(), defaultRunOptions())
	require.NoError(testInstance, firstRunError)
	require.Equal(testInstance, 1, fileSystem.writeCount)

	secondResult, secondRunError := service.Run(context.Background(), defaultRunOptions())
	require.NoError(testInstance, secondRunError)
	require.False(testInstance, secondResult.RosterChanged)
	require.Equal(testInstance, 1, fileSystem.writeCount)
	require.Equal(testInstance, servicePatchedRosterConstant, string(fileSystem.files[serviceRosterPathConstant]))
}

func TestServiceSourceFailureEscalates(testInstance *testing.T) {
	service := newTestService(testInstance, stubResponseSource{loadError: errors.New("feed unavailable")}, newFakeFileSystem())

	_, runError := service.Run(context.Background(), defaultRunOptions())

	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "failed to load responses")
}

func TestServiceMissingRosterEscalates(testInstance *testing.T) {
	service := newTestService(testInstance, stubResponseSource{rows: septemberFeedRows()}, newFakeFileSystem())

	_, runError := service.Run(context.Background(), defaultRunOptions())

	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "failed to read roster")
}

func TestServiceUnresolvableTimezoneEscalates(testInstance *testing.T) {
	service := newTestService(testInstance, stubResponseSource{rows: septemberFeedRows()}, newFakeFileSystem())

	runOptions := defaultRunOptions()
	runOptions.TimezoneName = "Nowhere/Invalid"
	_, runError := service.Run(context.Background(), runOptions)

	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "failed to resolve timezone")
}

func TestServiceWriteFailureEscalates(testInstance *testing.T) {
	fileSystem := newFakeFileSystem()
	fileSystem.files[serviceRosterPathConstant] = []byte(serviceRosterFixtureConstant)
	fileSystem.writeError = errors.New("read-only volume")
	service := newTestService(testInstance, stubResponseSource{rows: septemberFeedRows()}, fileSystem)

	_, runError := service.Run(context.Background(), defaultRunOptions())

	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "failed to write roster")
}

func TestNewServiceRequiresResponseSource(testInstance *testing.T) {
	_, serviceError := autoclose.NewService(autoclose.ServiceDependencies{})

	require.Error(testInstance, serviceError)
}
