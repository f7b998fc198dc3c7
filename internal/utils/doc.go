// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader, LoggerFactory, CommandContextAccessor,
// and text normalization primitives that integrate Viper, environment
// variables, zap logging, and Unicode folding for the CLI.
package utils
