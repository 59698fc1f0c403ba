package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/careband/pressure-monitor/internal/heatmap"
	"github.com/careband/pressure-monitor/internal/metrics"
	"github.com/careband/pressure-monitor/internal/session"
)

// Settings represents global application settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`
}

// SourceConfig selects where sensor data files come from. BaseURL wins
// over DataDir when both are set.
type SourceConfig struct {
	DataDir string `yaml:"dataDir"`
	BaseURL string `yaml:"baseURL"`
}

// Duration unmarshals YAML values like "200ms" or "1s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// PlaybackConfig tunes the heatmap playback rendering.
type PlaybackConfig struct {
	FrameDuration Duration `yaml:"frameDuration"`
	Palette       string   `yaml:"palette"`
	Loops         int      `yaml:"loops"`
	FontFile      string   `yaml:"fontFile"`
}

// Config is the assembled dashboard configuration: YAML file settings
// overlaid with command line flags.
type Config struct {
	Settings  Settings           `yaml:"settings"`
	Source    SourceConfig       `yaml:"source"`
	IndexFile string             `yaml:"indexFile"`
	NotesDB   string             `yaml:"notesDB"`
	Playback  PlaybackConfig     `yaml:"playback"`
	Threshold metrics.Thresholds `yaml:"thresholds"`

	// Flag-only selections.
	PatientID string
	Email     string
	DateKey   string
	Range     string
	OutDir    string
	ChartFile string
	Note      string
	ListNotes bool
	Verbose   bool
}

// NewConfig returns a configuration with defaults applied.
func NewConfig() *Config {
	return &Config{
		Settings:  Settings{LogLevel: "info"},
		Source:    SourceConfig{DataDir: "sensor-data"},
		IndexFile: "patients.yaml",
		NotesDB:   "notes.sqlite",
		Playback: PlaybackConfig{
			FrameDuration: Duration(200 * time.Millisecond),
			Palette:       string(heatmap.DefaultTheme),
			Loops:         1,
		},
		Range: session.RangeDay,
	}
}

// NewConfigFromCLI assembles configuration from an optional YAML file,
// environment fallbacks and command line flags.
func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var configFile string
	flag.StringVar(&configFile, "config", "", "Path to the YAML configuration file")
	flag.StringVar(&c.PatientID, "patient", "", "Patient ID to load")
	flag.StringVar(&c.Email, "email", "", "Resolve the patient by email instead of ID")
	flag.StringVar(&c.DateKey, "date", "", "Session date to play back (default: most recent)")
	flag.StringVar(&c.Range, "range", c.Range, "Chart range selector [1h, 6h, 24h]")
	flag.StringVar(&c.OutDir, "out", "playback", "Directory for rendered playback frames")
	flag.StringVar(&c.ChartFile, "chart", "trend.html", "Path for the trend chart HTML")
	flag.StringVar(&c.Note, "note", "", "Append a clinician note for the patient")
	flag.BoolVar(&c.ListNotes, "list-notes", false, "Print the patient's note log")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")

	var palette string
	flag.StringVar(&palette, "palette", "", "Heatmap palette [classic, thermal, grayscale]")
	flag.Parse()

	if configFile != "" {
		if err := c.loadFile(configFile); err != nil {
			return nil, err
		}
	}
	c.applyEnv()

	if palette != "" {
		c.Playback.Palette = palette
	}

	var err error
	if c.PatientID == "" && c.Email == "" {
		err = errors.New("a patient (-patient or -email) is required")
	} else if !heatmap.ValidTheme(c.Playback.Palette) {
		err = fmt.Errorf("invalid palette: %s", c.Playback.Palette)
	} else if c.Playback.FrameDuration <= 0 {
		err = errors.New("frame duration must be positive")
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnv fills unset file paths from the environment.
func (c *Config) applyEnv() {
	c.Source.DataDir = getEnv("SENSOR_DATA_DIR", c.Source.DataDir)
	c.Source.BaseURL = getEnv("SENSOR_BASE_URL", c.Source.BaseURL)
	c.IndexFile = getEnv("PATIENT_INDEX", c.IndexFile)
	c.NotesDB = getEnv("NOTES_DB", c.NotesDB)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// NewLogger builds the application logger: stdout, optionally teed into
// a rotating log file.
func NewLogger(c *Config) *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose || c.Settings.LogLevel == "debug" {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stdout
	if c.Settings.LogFile != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   c.Settings.LogFile,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
