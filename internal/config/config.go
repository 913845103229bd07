package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"`
	} `yaml:"jwt"`

	Storage struct {
		Type       string `yaml:"type"`        // local, cloudflare_r2
		BasePath   string `yaml:"base_path"`   // For local storage
		BaseURL    string `yaml:"base_url"`    // Public URL base
		Bucket     string `yaml:"bucket"`      // For R2
		AccessKey  string `yaml:"access_key"`  // For R2
		SecretKey  string `yaml:"secret_key"`  // For R2
		Endpoint   string `yaml:"endpoint"`    // For R2
		PublicRead bool   `yaml:"public_read"` // Make files public
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Media MediaConfig `yaml:"media"`

	Revalidate struct {
		QueueSize int `yaml:"queue_size"`
		Retries   int `yaml:"retries"`
	} `yaml:"revalidate"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, falling back to environment variables
// when DATABASE_URL is set (test mode). A .env file is honored when
// present.
func LoadConfig() {
	var cfg Config

	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyMediaDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./uploads"
	cfg.Storage.BaseURL = "/api/v1/files"

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")

	applyMediaDefaults(&cfg)
	AppConfig = &cfg
}

func applyMediaDefaults(cfg *Config) {
	if cfg.Media.MaxUploadBytes == 0 {
		cfg.Media.MaxUploadBytes = 20 * 1024 * 1024 // 20MB
	}
	if cfg.Media.MaxDecodeDim == 0 {
		cfg.Media.MaxDecodeDim = 2000
	}
	if cfg.Media.JPEGQuality == 0 {
		cfg.Media.JPEGQuality = 85
	}
	if cfg.Media.PreviewDebounceMS == 0 {
		cfg.Media.PreviewDebounceMS = 150
	}
	if cfg.Media.VideoSkeletonTimeoutMS == 0 {
		cfg.Media.VideoSkeletonTimeoutMS = 3000
	}
	if cfg.Media.AudioSkeletonTimeoutMS == 0 {
		cfg.Media.AudioSkeletonTimeoutMS = 1500
	}
	if cfg.Media.WorkOutputWidth == 0 {
		cfg.Media.WorkOutputWidth = 1600
	}
	if cfg.Media.WorkOutputHeight == 0 {
		cfg.Media.WorkOutputHeight = 1200
	}
	if cfg.Media.AvatarSize == 0 {
		cfg.Media.AvatarSize = 512
	}
	if cfg.Media.AvatarThumbSize == 0 {
		cfg.Media.AvatarThumbSize = 128
	}
	if cfg.Media.BannerWidth == 0 {
		// Banners keep a 3:1 aspect
		cfg.Media.BannerWidth = 1800
		cfg.Media.BannerHeight = 600
	}
	if cfg.Media.BannerThumbWidth == 0 {
		cfg.Media.BannerThumbWidth = 600
		cfg.Media.BannerThumbHeight = 200
	}
	if cfg.Media.DraftTTLMinutes == 0 {
		cfg.Media.DraftTTLMinutes = 30
	}
	if cfg.Revalidate.QueueSize == 0 {
		cfg.Revalidate.QueueSize = 256
	}
	if cfg.Revalidate.Retries == 0 {
		cfg.Revalidate.Retries = 3
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
