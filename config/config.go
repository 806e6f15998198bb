package config

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"
)

type Config struct {
	MinIOBucket string        `yaml:"minio_bucket"`
	App         App           `yaml:"app"`
	Server      Server        `yaml:"server"`
	Paths       Paths         `yaml:"paths"`
	Media       Media         `yaml:"media"`
	Cache       Cache         `yaml:"cache"`
	DB          *sql.DB       `yaml:"db"`
	Queue       *RabbitMQ     `yaml:"rabbitmq"`
	Storage     *minio.Client `yaml:"storage"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort string `yaml:"http_port"`
	Workers  int    `yaml:"workers"`
}

// Paths are the on-disk working directories. Output artifacts live at
// {Processed}/{id}.mp4 and {Processed}/{id}.jpg; that layout is part of the
// public contract and fetch handlers derive paths from the id alone.
type Paths struct {
	Upload    string `yaml:"upload_dir"`
	Processed string `yaml:"processed_dir"`
	Cache     string `yaml:"cache_dir"`
	Audio     string `yaml:"audio_dir"`
}

type Media struct {
	EncodingPreset      string  `yaml:"encoding_preset"`
	CRF                 int     `yaml:"crf"`
	AudioBitrate        string  `yaml:"audio_bitrate"`
	DefaultClipDuration float64 `yaml:"default_clip_duration"`
	YouTubeQuality      string  `yaml:"youtube_quality"`
}

type Cache struct {
	Enabled       bool          `yaml:"enabled"`
	MaxAge        time.Duration `yaml:"max_age"`
	MaxEntries    int           `yaml:"max_entries"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	FileRetention time.Duration `yaml:"file_retention"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

func Load(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.workers", 4)
	viper.SetDefault("paths.upload_dir", filepath.Join(path, "uploads"))
	viper.SetDefault("paths.processed_dir", filepath.Join(path, "processed"))
	viper.SetDefault("paths.cache_dir", filepath.Join(path, "cache"))
	viper.SetDefault("paths.audio_dir", filepath.Join(path, "assets", "sounds"))
	viper.SetDefault("media.encoding_preset", "veryfast")
	viper.SetDefault("media.crf", 23)
	viper.SetDefault("media.audio_bitrate", "128k")
	viper.SetDefault("media.default_clip_duration", 15.0)
	viper.SetDefault("media.youtube_quality", "720p")
	viper.SetDefault("rabbitmq_exchange_name", "composition_exchange")
	viper.SetDefault("rabbitmq_kind", "topic")
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_age", "24h")
	viper.SetDefault("cache.max_entries", 100)
	viper.SetDefault("cache.sweep_interval", "10m")
	viper.SetDefault("cache.file_retention", "24h")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", viper.GetString("postgresql_host"))
	if err != nil {
		return nil, err
	}

	rabbitmq := &RabbitMQ{
		Host:         viper.GetString("rabbitmq_host"),
		Port:         viper.GetInt("rabbitmq_port"),
		User:         viper.GetString("rabbitmq_user"),
		Pass:         viper.GetString("rabbitmq_pass"),
		ExchangeName: viper.GetString("rabbitmq_exchange_name"),
		Kind:         viper.GetString("rabbitmq_kind"),
	}

	var minioClient *minio.Client
	if viper.GetString("minio.url") != "" {
		minioClient, err = minio.New(viper.GetString("minio.url"), &minio.Options{
			Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
			Secure: false,
		})
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		MinIOBucket: viper.GetString("minio.bucket"),
		App: App{
			Environment: viper.GetString("app.environment"),
			Host:        viper.GetString("app.host"),
			Protocol:    viper.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort: viper.GetString("server.port"),
			Workers:  viper.GetInt("server.workers"),
		},
		Paths: Paths{
			Upload:    viper.GetString("paths.upload_dir"),
			Processed: viper.GetString("paths.processed_dir"),
			Cache:     viper.GetString("paths.cache_dir"),
			Audio:     viper.GetString("paths.audio_dir"),
		},
		Media: Media{
			EncodingPreset:      viper.GetString("media.encoding_preset"),
			CRF:                 viper.GetInt("media.crf"),
			AudioBitrate:        viper.GetString("media.audio_bitrate"),
			DefaultClipDuration: viper.GetFloat64("media.default_clip_duration"),
			YouTubeQuality:      viper.GetString("media.youtube_quality"),
		},
		Cache: Cache{
			Enabled:       viper.GetBool("cache.enabled"),
			MaxAge:        viper.GetDuration("cache.max_age"),
			MaxEntries:    viper.GetInt("cache.max_entries"),
			SweepInterval: viper.GetDuration("cache.sweep_interval"),
			FileRetention: viper.GetDuration("cache.file_retention"),
		},
		DB:      db,
		Queue:   rabbitmq,
		Storage: minioClient,
	}

	for _, dir := range []string{cfg.Paths.Upload, cfg.Paths.Processed, cfg.Paths.Cache, cfg.Paths.Audio} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
