package constants

// Log file names.
const (
	// CLILogFileName is the name of the global log file.
	// This file is located in ~/.patchbay/logs/patchbay.log
	CLILogFileName = "patchbay.log"

	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated log files kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is the age after which rotated log files are removed.
	LogMaxAgeDays = 7

	// LogCompress enables gzip of rotated log files.
	LogCompress = true
)

// Configuration file names.
const (
	// ConfigFileName is the name of both the global and the project configuration file.
	ConfigFileName = "config.yaml"

	// ProjectConfigDir is the project-level configuration directory, relative to the working directory.
	ProjectConfigDir = ".patchbay"
)

// Diff path prefixes and markers.
const (
	// DevNull is the path used in diff headers for a missing side (file creation or deletion).
	DevNull = "/dev/null"
)
