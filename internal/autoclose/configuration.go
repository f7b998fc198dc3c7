package autoclose

import (
	"strings"

	pathutils "github.com/wcc-tools/mentorsync/internal/utils/path"
)

const (
	configurationRosterPathKeyConstant  = "roster_path"
	configurationSheetKeyConstant       = "sheet"
	configurationWorksheetKeyConstant   = "worksheet"
	configurationCredentialsKeyConstant = "credentials"
	configurationCSVKeyConstant         = "csv"
	configurationTimezoneKeyConstant    = "timezone"
	configurationMonthKeyConstant       = "month"
	configurationDryRunKeyConstant      = "dry_run"
	configurationKeySeparatorConstant   = "."

	defaultRosterPathConstant     = "_data/mentors.yml"
	defaultWorksheetTitleConstant = "Form responses 1"
	defaultTimezoneNameConstant   = "Europe/London"
)

var configurationPathExpander = pathutils.NewHomeExpander()

// CommandConfiguration captures persisted configuration for the auto-close command.
type CommandConfiguration struct {
	RosterPath      string `mapstructure:"roster_path"`
	SpreadsheetID   string `mapstructure:"sheet"`
	WorksheetTitle  string `mapstructure:"worksheet"`
	CredentialsFile string `mapstructure:"credentials"`
	CSVPath         string `mapstructure:"csv"`
	TimezoneName    string `mapstructure:"timezone"`
	MonthOverride   int    `mapstructure:"month"`
	DryRun          bool   `mapstructure:"dry_run"`
}

// DefaultCommandConfiguration returns baseline configuration values for the auto-close command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RosterPath:     defaultRosterPathConstant,
		WorksheetTitle: defaultWorksheetTitleConstant,
		TimezoneName:   defaultTimezoneNameConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the auto-close command.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		rootKey + configurationKeySeparatorConstant + configurationRosterPathKeyConstant: defaults.RosterPath,
		rootKey + configurationKeySeparatorConstant + configurationWorksheetKeyConstant:  defaults.WorksheetTitle,
		rootKey + configurationKeySeparatorConstant + configurationTimezoneKeyConstant:   defaults.TimezoneName,
		rootKey + configurationKeySeparatorConstant + configurationMonthKeyConstant:      defaults.MonthOverride,
		rootKey + configurationKeySeparatorConstant + configurationDryRunKeyConstant:     defaults.DryRun,
	}
}

// Sanitize trims configured values and expands home-relative paths.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RosterPath = configurationPathExpander.Expand(strings.TrimSpace(configuration.RosterPath))
	sanitized.SpreadsheetID = strings.TrimSpace(configuration.SpreadsheetID)
	sanitized.WorksheetTitle = strings.TrimSpace(configuration.WorksheetTitle)
	sanitized.CredentialsFile = configurationPathExpander.Expand(strings.TrimSpace(configuration.CredentialsFile))
	sanitized.CSVPath = configurationPathExpander.Expand(strings.TrimSpace(configuration.CSVPath))
	sanitized.TimezoneName = strings.TrimSpace(configuration.TimezoneName)
	return sanitized
}
