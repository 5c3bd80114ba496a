package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	HTTPAddress string        `yaml:"http_address" env:"HTTP_ADDRESS" env-default:":8080"`
	HTTPTimeout time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT" env-default:"15s"`
	DBAddress   string        `yaml:"db_address" env:"DB_ADDRESS" env-required:"true"`

	// Defaults served by the static profile adapter until a real identity
	// provider is wired in.
	WorkloadThreshold int `yaml:"workload_threshold" env:"WORKLOAD_THRESHOLD" env-default:"5"`
}

// MustLoad reads the config file, falling back to environment variables
// when the path is empty or the file does not exist.
func MustLoad(configPath string) Config {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return cfg
		}
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}

	return cfg
}
