package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/gitpulse/schema"
)

// Label severity levels shared by every status vocabulary.
const (
	CriticalValue = "Critical" // Critical value
	HighValue     = "High"     // High value
	ModerateValue = "Moderate" // Moderate value
	LowValue      = "Low"      // Low value
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold)     // criticalColor represents standard danger.
	HighColor     = color.New(color.FgMagenta, color.Bold) // highColor represents strong, distinct warning.
	ModerateColor = color.New(color.FgYellow)              // moderateColor represents standard caution, not bold.
	LowColor      = color.New(color.FgCyan)                // lowColor represents informational / low-priority signal.
)

// GetPlainLabel maps a 0-100 score onto a severity level.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return CriticalValue
	case score >= 60:
		return HighValue
	case score >= 40:
		return ModerateValue
	default:
		return LowValue
	}
}

// StatusLevel maps any status or severity string onto a severity level.
func StatusLevel(status string) string {
	switch status {
	case string(schema.Critical), string(schema.Overloaded):
		return CriticalValue
	case string(schema.HighRisk), string(schema.HighSeverity):
		return HighValue
	case string(schema.Warning), string(schema.MediumRisk), string(schema.MediumSeverity), string(schema.Underutilized):
		return ModerateValue
	default:
		return LowValue
	}
}

// GetColorLabel returns the status colored by its severity level for console output.
func GetColorLabel(status string) string {
	switch StatusLevel(status) {
	case CriticalValue:
		return CriticalColor.Sprint(status)
	case HighValue:
		return HighColor.Sprint(status)
	case ModerateValue:
		return ModerateColor.Sprint(status)
	default:
		return LowColor.Sprint(status)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	Logger.WithError(err).Errorf("Fatal %s", msg)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	Logger.WithError(err).Warnf("Warn %s", msg)
}

func homeFile(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetRecordDBFilePath returns the path to the SQLite DB file for raw records.
func GetRecordDBFilePath() string {
	return homeFile(".gitpulse_records.db")
}

// GetSnapshotDBFilePath returns the path to the SQLite DB file for archived snapshots.
func GetSnapshotDBFilePath() string {
	return homeFile(".gitpulse_snapshots.db")
}

// TruncatePath truncates a string to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
