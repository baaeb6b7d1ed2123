package internal

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
	"github.com/tomelib/tome/internal/api"
	"github.com/tomelib/tome/internal/database"
	"github.com/tomelib/tome/internal/download"
	"github.com/tomelib/tome/internal/ffmpeg"
	"github.com/tomelib/tome/internal/openai"
	"github.com/tomelib/tome/internal/youtube"
)

// TomeConfig is the struct used to contain the various user config
// supplied by file, or manually inside the code.
type TomeConfig struct {
	Database  database.DatabaseConfig `yaml:"database" env-required:"true"`
	Rest      api.RestConfig          `yaml:"api"`
	Download  download.Config         `yaml:"download"`
	YouTube   youtube.Config          `yaml:"youtube"`
	Ffmpeg    ffmpeg.Config           `yaml:"ffmpeg"`
	OpenAI    openai.Config           `yaml:"openai"`
	Summaries SummariesConfig         `yaml:"summaries"`
}

// SummariesConfig controls the batch summary backfill mode.
type SummariesConfig struct {
	InterCallDelaySeconds int `yaml:"inter_call_delay_seconds" env:"SUMMARY_INTER_CALL_DELAY" env-default:"2"`
}

func (config *SummariesConfig) InterCallDelay() time.Duration {
	return time.Duration(config.InterCallDelaySeconds) * time.Second
}

// LoadFromFile loads a configuration file formatted in YAML in to a
// TomeConfig struct. Environment variables override file values.
func (config *TomeConfig) LoadFromFile(configPath string) error {
	path, err := homedir.Expand(configPath)
	if err != nil {
		return fmt.Errorf("failed to expand config path %s: %w", configPath, err)
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	return nil
}

// LoadFromEnv populates the config purely from environment variables and
// defaults, for deployments which do not ship a config file.
func (config *TomeConfig) LoadFromEnv() error {
	if err := cleanenv.ReadEnv(config); err != nil {
		return fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	return nil
}
