package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Model       ModelConfig
	Database    DatabaseConfig
	Roster      RosterConfig
	Uploads     UploadsConfig
	Recognition RecognitionConfig
	Thresholds  ThresholdsConfig
}

type ModelConfig struct {
	URL            string // face model server base URL (e.g. http://localhost:8000)
	TimeoutSeconds int    // per detect/embed call (default 30)
	EmbeddingDim   int    // defaults to 128 (FaceNet)
	InputSize      int    // square face crop size expected by the embedder (default 160)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type RosterConfig struct {
	// MISDatabaseURL is an optional MariaDB DSN for importing the student
	// roster from an existing school information system
	// (e.g. sis:sis@tcp(mariadb:3306)/schooldb).
	MISDatabaseURL string
}

type UploadsConfig struct {
	Dir string // where annotated batch images are written (default ./uploads)
}

type RecognitionConfig struct {
	Profile     string // active threshold profile name (default "default")
	Concurrency int    // batch worker pool size (default 5)
	Matcher     string // "linear" (default) or "hnsw" for large galleries

	IoUThreshold    float64 // NMS suppression threshold
	MinConfidence   float64 // detector minimum confidence
	AcceptThreshold float64 // cosine score above which a match counts
}

type ThresholdsConfig struct {
	Profiles map[string]ThresholdProfile `yaml:"profiles"`
}

type ThresholdProfile struct {
	IoUThreshold    float64 `yaml:"iou_threshold"`
	MinConfidence   float64 `yaml:"min_confidence"`
	AcceptThreshold float64 `yaml:"accept_threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0,1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	profileName := envString("FACEMARK_PROFILE", "default")
	profile, ok := thresholds.Profiles[profileName]
	if !ok {
		profile = thresholds.Profiles["default"]
	}

	return &Config{
		Model: ModelConfig{
			URL:            os.Getenv("MODEL_URL"),
			TimeoutSeconds: envInt("MODEL_TIMEOUT_SECONDS", 30),
			EmbeddingDim:   envInt("EMBEDDING_DIM", 128),
			InputSize:      envInt("MODEL_INPUT_SIZE", 160),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Roster: RosterConfig{
			MISDatabaseURL: os.Getenv("MIS_DATABASE_URL"),
		},
		Uploads: UploadsConfig{
			Dir: envString("UPLOADS_DIR", "uploads"),
		},
		Recognition: RecognitionConfig{
			Profile:         profileName,
			Concurrency:     envInt("BATCH_CONCURRENCY", 5),
			Matcher:         envString("MATCHER_BACKEND", "linear"),
			IoUThreshold:    envFloat("IOU_THRESHOLD", profile.IoUThreshold),
			MinConfidence:   envFloat("MIN_CONFIDENCE", profile.MinConfidence),
			AcceptThreshold: envFloat("ACCEPT_THRESHOLD", profile.AcceptThreshold),
		},
		Thresholds: thresholds,
	}
}

// GetProfile returns the named threshold profile, falling back to "default".
func (c *Config) GetProfile(name string) ThresholdProfile {
	if p, ok := c.Thresholds.Profiles[name]; ok {
		return p
	}
	return c.Thresholds.Profiles["default"]
}
