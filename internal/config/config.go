package config

import "fmt"

// Album behaviors supported by the move stage.
const (
	AlbumBehaviorShortcut        = "shortcut"
	AlbumBehaviorDuplicateCopy   = "duplicate-copy"
	AlbumBehaviorReverseShortcut = "reverse-shortcut"
	AlbumBehaviorJSON            = "json"
	AlbumBehaviorNothing         = "nothing"
)

// Date divisions for the ALL_PHOTOS tree.
const (
	DateDivisionNone         = "none"
	DateDivisionYear         = "year"
	DateDivisionYearMonth    = "year-month"
	DateDivisionYearMonthDay = "year-month-day"
)

// Extension fixing modes.
const (
	ExtensionFixingNone         = "none"
	ExtensionFixingStandard     = "standard"
	ExtensionFixingConservative = "conservative"
	ExtensionFixingSolo         = "solo"
)

//go:generate go run github.com/ecordell/optgen -output zz_generated.configuration.go . Config
type Config struct {
	InputDir  string `debugmap:"visible"`
	OutputDir string `debugmap:"visible"`

	AlbumBehavior   string `debugmap:"visible" default:"shortcut"`
	DateDivision    string `debugmap:"visible" default:"none"`
	ExtensionFixing string `debugmap:"visible" default:"none"`

	WriteExif          bool `debugmap:"visible" default:"true"`
	UpdateCreationTime bool `debugmap:"visible"`
	SkipExtras         bool `debugmap:"visible"`
	Verbose            bool `debugmap:"visible"`
	DryRun             bool `debugmap:"visible"`

	EnforceMaxFileSize bool  `debugmap:"visible"`
	MaxFileSize        int64 `debugmap:"visible" default:"4294967296"`
	LimitFileSize      bool  `debugmap:"visible"`

	TransformPixelMotionPhotos     bool `debugmap:"visible"`
	EnableExiftoolBatch            bool `debugmap:"visible" default:"true"`
	ForceProcessUnsupportedFormats bool `debugmap:"visible"`

	FastHash      bool  `debugmap:"visible"`
	FastHashBytes int64 `debugmap:"visible" default:"2097152"`

	// Log
	LogFormat string `debugmap:"visible" default:"console"`
	LogLevel  string `debugmap:"visible" default:"info"`
}

// Validate rejects unknown enum values before the pipeline starts.
func (c *Config) Validate() error {
	switch c.AlbumBehavior {
	case AlbumBehaviorShortcut, AlbumBehaviorDuplicateCopy, AlbumBehaviorReverseShortcut,
		AlbumBehaviorJSON, AlbumBehaviorNothing:
	default:
		return fmt.Errorf("unknown album behavior: %q", c.AlbumBehavior)
	}

	switch c.DateDivision {
	case DateDivisionNone, DateDivisionYear, DateDivisionYearMonth, DateDivisionYearMonthDay:
	default:
		return fmt.Errorf("unknown date division: %q", c.DateDivision)
	}

	switch c.ExtensionFixing {
	case ExtensionFixingNone, ExtensionFixingStandard, ExtensionFixingConservative, ExtensionFixingSolo:
	default:
		return fmt.Errorf("unknown extension fixing mode: %q", c.ExtensionFixing)
	}

	if c.InputDir == "" {
		return fmt.Errorf("input directory cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	// The low-memory switch is a shorthand for a 64 MiB hashing cap.
	if c.LimitFileSize {
		c.EnforceMaxFileSize = true
		if c.MaxFileSize > 64*1024*1024 {
			c.MaxFileSize = 64 * 1024 * 1024
		}
	}

	return nil
}
