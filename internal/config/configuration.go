package config

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// Store
	DBPath       string `mapstructure:"DB_PATH" validate:"required"`
	StoreRetries int    `mapstructure:"STORE_RETRIES"`

	// Scratch tree
	WorkRoot string `mapstructure:"WORK_ROOT" validate:"required"`

	// Sampling cadences
	FrameSampleRateFPS  float64 `mapstructure:"FRAME_SAMPLE_RATE_FPS" validate:"gt=0"`
	AudioSegmentSeconds float64 `mapstructure:"AUDIO_SEGMENT_SECONDS" validate:"gt=0"`

	// Worker pacing
	IdleSleepSeconds int `mapstructure:"IDLE_SLEEP_SECONDS" validate:"gte=0"`

	// External tools
	AuthCookiePath    string `mapstructure:"AUTH_COOKIE_PATH"`
	YtdlpPath         string `mapstructure:"YTDLP_PATH"`
	FfmpegPath        string `mapstructure:"FFMPEG_PATH"`
	FfprobePath       string `mapstructure:"FFPROBE_PATH"`
	PoseEstimatorPath string `mapstructure:"POSE_ESTIMATOR_PATH"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig() (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("DB_PATH", "/data/video_memory.db")
	viper.SetDefault("STORE_RETRIES", 10)
	viper.SetDefault("WORK_ROOT", "/tmp/mnemo_work")
	viper.SetDefault("FRAME_SAMPLE_RATE_FPS", 1.0)
	viper.SetDefault("AUDIO_SEGMENT_SECONDS", 1.0)
	viper.SetDefault("IDLE_SLEEP_SECONDS", 5)
	viper.SetDefault("AUTH_COOKIE_PATH", "/data/youtube_cookies.txt")
	viper.SetDefault("YTDLP_PATH", "yt-dlp")
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("FFPROBE_PATH", "ffprobe")
	viper.SetDefault("POSE_ESTIMATOR_PATH", "pose-estimator")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration", "db_path", cfg.DBPath, "work_root", cfg.WorkRoot,
		"frame_sample_rate_fps", cfg.FrameSampleRateFPS,
		"audio_segment_seconds", cfg.AudioSegmentSeconds)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
