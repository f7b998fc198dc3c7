package cli

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wcc-tools/mentorsync/internal/utils"
)

const (
	autoCloseCommandUseConstant          = "auto-close"
	expectedPersistentFlagMissingMessage = "expected persistent flag %s"
)

func TestNewApplicationRegistersAutoCloseCommand(testInstance *testing.T) {
	application := NewApplication()

	registeredCommandUses := make([]string, 0, len(application.rootCommand.Commands()))
	for _, registeredCommand := range application.rootCommand.Commands() {
		registeredCommandUses = append(registeredCommandUses, registeredCommand.Use)
	}
	require.Contains(testInstance, registeredCommandUses, autoCloseCommandUseConstant)
}

func TestNewApplicationRegistersPersistentFlags(testInstance *testing.T) {
	application := NewApplication()

	persistentFlagNames := []string{configFileFlagNameConstant, logLevelFlagNameConstant, logFormatFlagNameConstant}
	for _, persistentFlagName := range persistentFlagNames {
		require.NotNilf(
			testInstance,
			application.rootCommand.PersistentFlags().Lookup(persistentFlagName),
			expectedPersistentFlagMissingMessage,
			persistentFlagName,
		)
	}
}

func TestInitializeConfigurationAppliesDefaultsAndFlagOverrides(testInstance *testing.T) {
	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, string(utils.LogFormatConsole)))

	initializationError := application.initializeConfiguration(application.rootCommand)

	require.NoError(testInstance, initializationError)
	require.Equal(testInstance, "info", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "console", application.configuration.Common.LogFormat)
	require.Equal(testInstance, "_data/mentors.yml", application.configuration.Tools.AutoClose.RosterPath)
	require.Equal(testInstance, "Europe/London", application.configuration.Tools.AutoClose.TimezoneName)
}
