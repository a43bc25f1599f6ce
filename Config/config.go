package Config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   string `env:"PORT" envDefault:"8000"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"cephaloai"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBPath     string `env:"DB_PATH" envDefault:"cephaloai.db"`

	APISecret         string   `env:"API_SECRET" envDefault:"supersecret"`
	TokenHourLifespan int      `env:"TOKEN_HOUR_LIFESPAN" envDefault:"24"`
	AllowedOrigins    []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	OutputDir      string `env:"OUTPUT_DIR" envDefault:"./outputs"`
	MaxUploadMB    int64  `env:"MAX_UPLOAD_MB" envDefault:"20"`
	MaxImagePixels int64  `env:"MAX_IMAGE_PIXELS" envDefault:"50000000"` // width*height


	PredictorURL     string        `env:"PREDICTOR_URL"`
	PredictorToken   string        `env:"PREDICTOR_TOKEN"`
	PredictorTimeout time.Duration `env:"PREDICTOR_TIMEOUT" envDefault:"60s"`
	NormsFile        string        `env:"NORMS_FILE"`

	AnalysisWorkers      int `env:"ANALYSIS_WORKERS" envDefault:"2"`
	AnalysisMaxAttempts  int `env:"ANALYSIS_MAX_ATTEMPTS" envDefault:"3"`
	RetryIntervalMinutes int `env:"RETRY_INTERVAL_MINUTES" envDefault:"5"`

	FirebaseServiceAccountPath string `env:"FIREBASE_SERVICE_ACCOUNT_PATH"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// C holds the configuration loaded by Load.
var C = Default()

// Default returns the configuration with only envDefault values applied.
func Default() Config {
	var cfg Config
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.AnalysisWorkers < 1 {
		cfg.AnalysisWorkers = 1
	}
	C = cfg
	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c Config) TokenLifespan() time.Duration {
	return time.Duration(c.TokenHourLifespan) * time.Hour
}
