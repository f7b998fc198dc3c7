package autoclose

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wcc-tools/mentorsync/internal/responses"
)

const (
	commandUseConstant              = "auto-close"
	commandShortDescriptionConstant = "Close mentor capacity for the current month"
	commandLongDescriptionConstant  = "auto-close counts this month's mentee applications per mentor and, when a mentor's applications meet their hours, removes the month from the mentor's availability and deprioritizes the roster entry."

	rosterFlagNameConstant       = "roster"
	rosterFlagUsageConstant      = "Path to the mentors roster YAML file"
	sheetFlagNameConstant        = "sheet"
	sheetFlagUsageConstant       = "Google Sheets spreadsheet identifier holding form responses"
	worksheetFlagNameConstant    = "worksheet"
	worksheetFlagUsageConstant   = "Worksheet title inside the response spreadsheet"
	credentialsFlagNameConstant  = "credentials"
	credentialsFlagUsageConstant = "Path to the service account credentials file"
	csvFlagNameConstant          = "csv"
	csvFlagUsageConstant         = "Path to a local CSV response fixture, replaces the sheet source"
	timezoneFlagNameConstant     = "timezone"
	timezoneFlagUsageConstant    = "IANA timezone bounding the month window"
	monthFlagNameConstant        = "month"
	monthFlagUsageConstant       = "Month number override between 1 and 12, defaults to the current month"
	dryRunFlagNameConstant       = "dry-run"
	dryRunFlagUsageConstant      = "Report mentors that would close without writing the roster"

	missingRosterPathMessageConstant      = "roster path must be configured"
	missingResponseFeedMessageConstant    = "either a spreadsheet identifier or a CSV fixture must be configured"
	missingCredentialsMessageConstant     = "credentials file must be configured for the sheet source"
	invalidMonthOverrideTemplateConstant  = "month override must be between 1 and 12: %d"
	commandExecutionErrorTemplateConstant = "auto-close failed: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ServiceProvider constructs the auto-close service from dependencies.
type ServiceProvider func(dependencies ServiceDependencies) (*Service, error)

// ResponseSourceProvider selects the response feed for a resolved configuration.
type ResponseSourceProvider func(configuration CommandConfiguration, logger *zap.Logger) responses.Source

// CommandBuilder assembles the auto-close Cobra command.
type CommandBuilder struct {
	LoggerProvider         LoggerProvider
	ConfigurationProvider  func() CommandConfiguration
	ServiceProvider        ServiceProvider
	ResponseSourceProvider ResponseSourceProvider
	FileSystem             FileSystem
	Clock                  Clock
}

// Build constructs the auto-close command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.runAutoClose,
	}

	command.Flags().String(rosterFlagNameConstant, "", rosterFlagUsageConstant)
	command.Flags().String(sheetFlagNameConstant, "", sheetFlagUsageConstant)
	command.Flags().String(worksheetFlagNameConstant, "", worksheetFlagUsageConstant)
	command.Flags().String(credentialsFlagNameConstant, "", credentialsFlagUsageConstant)
	command.Flags().String(csvFlagNameConstant, "", csvFlagUsageConstant)
	command.Flags().String(timezoneFlagNameConstant, "", timezoneFlagUsageConstant)
	command.Flags().Int(monthFlagNameConstant, 0, monthFlagUsageConstant)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) runAutoClose(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	configuration = applyFlagOverrides(command, configuration)

	validationError := validateConfiguration(configuration)
	if validationError != nil {
		return validationError
	}

	logger := builder.resolveLogger()
	responseSource := builder.resolveResponseSource(configuration, logger)

	service, serviceError := builder.resolveService(ServiceDependencies{
		Logger:         logger,
		ResponseSource: responseSource,
		FileSystem:     builder.FileSystem,
		Clock:          builder.Clock,
	})
	if serviceError != nil {
		return serviceError
	}

	_, runError := service.Run(command.Context(), RunOptions{
		RosterPath:    configuration.RosterPath,
		TimezoneName:  configuration.TimezoneName,
		MonthOverride: configuration.MonthOverride,
		DryRun:        configuration.DryRun,
	})
	if runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}

	return nil
}

func applyFlagOverrides(command *cobra.Command, configuration CommandConfiguration) CommandConfiguration {
	if command == nil {
		return configuration
	}

	flagSet := command.Flags()
	if flagSet.Changed(rosterFlagNameConstant) {
		configuration.RosterPath, _ = flagSet.GetString(rosterFlagNameConstant)
	}
	if flagSet.Changed(sheetFlagNameConstant) {
		configuration.SpreadsheetID, _ = flagSet.GetString(sheetFlagNameConstant)
	}
	if flagSet.Changed(worksheetFlagNameConstant) {
		configuration.WorksheetTitle, _ = flagSet.GetString(worksheetFlagNameConstant)
	}
	if flagSet.Changed(credentialsFlagNameConstant) {
		configuration.CredentialsFile, _ = flagSet.GetString(credentialsFlagNameConstant)
	}
	if flagSet.Changed(csvFlagNameConstant) {
		configuration.CSVPath, _ = flagSet.GetString(csvFlagNameConstant)
	}
	if flagSet.Changed(timezoneFlagNameConstant) {
		configuration.TimezoneName, _ = flagSet.GetString(timezoneFlagNameConstant)
	}
	if flagSet.Changed(monthFlagNameConstant) {
		configuration.MonthOverride, _ = flagSet.GetInt(monthFlagNameConstant)
	}
	if flagSet.Changed(dryRunFlagNameConstant) {
		configuration.DryRun, _ = flagSet.GetBool(dryRunFlagNameConstant)
	}

	return configuration.Sanitize()
}

func validateConfiguration(configuration CommandConfiguration) error {
	if len(configuration.RosterPath) == 0 {
		return errors.New(missingRosterPathMessageConstant)
	}
	if len(configuration.CSVPath) == 0 && len(configuration.SpreadsheetID) == 0 {
		return errors.New(missingResponseFeedMessageConstant)
	}
	if len(configuration.CSVPath) == 0 && len(configuration.CredentialsFile) == 0 {
		return errors.New(missingCredentialsMessageConstant)
	}
	if configuration.MonthOverride != 0 && (configuration.MonthOverride < 1 || configuration.MonthOverride > 12) {
		return fmt.Errorf(invalidMonthOverrideTemplateConstant, configuration.MonthOverride)
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration().Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	var logger *zap.Logger
	if builder.LoggerProvider != nil {
		logger = builder.LoggerProvider()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveResponseSource(configuration CommandConfiguration, logger *zap.Logger) responses.Source {
	if builder.ResponseSourceProvider != nil {
		return builder.ResponseSourceProvider(configuration, logger)
	}
	if len(configuration.CSVPath) > 0 {
		return responses.CSVSource{FilePath: configuration.CSVPath}
	}
	return responses.SheetSource{
		SpreadsheetID:   configuration.SpreadsheetID,
		WorksheetTitle:  configuration.WorksheetTitle,
		CredentialsFile: configuration.CredentialsFile,
		Logger:          logger,
	}
}

func (builder *CommandBuilder) resolveService(dependencies ServiceDependencies) (*Service, error) {
	if builder.ServiceProvider != nil {
		return builder.ServiceProvider(dependencies)
	}
	return NewService(dependencies)
}
