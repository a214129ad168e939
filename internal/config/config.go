package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string        `mapstructure:"log_level"`
	Paths    PathsConfig   `mapstructure:"paths"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	Framing  FramingConfig `mapstructure:"framing"`
	Convert  ConvertConfig `mapstructure:"convert"`
	Server   ServerConfig  `mapstructure:"server"`
}

type PathsConfig struct {
	CacheDir string `mapstructure:"cache_dir"`
}

type RuntimeConfig struct {
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTAPIVersion  uint32 `mapstructure:"ort_api_version"`
}

// FramingConfig holds the fixed-length framing applied around model calls.
// The token and sample lengths must match what the acoustic and vocoder
// checkpoints were exported with.
type FramingConfig struct {
	TokenFrameLength int `mapstructure:"token_frame_length"`
	AudioSampleCount int `mapstructure:"audio_sample_count"`
	VideoFrameCount  int `mapstructure:"video_frame_count"`
	ImageSize        int `mapstructure:"image_size"`
	NoiseDim         int `mapstructure:"noise_dim"`
}

type ConvertConfig struct {
	// PlaceholderOnError restores the legacy behavior of returning an
	// all-zero output instead of an error when a conversion fails.
	PlaceholderOnError bool `mapstructure:"placeholder_on_error"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	Workers         int    `mapstructure:"workers"`
	MaxBodyBytes    int    `mapstructure:"max_body_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
}

type LoadOptions struct {
	// Cmd optionally supplies a bound flag set. When nil, flags (and their
	// alias spellings) are not consulted; defaults, env vars, and the config
	// file still apply.
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Paths: PathsConfig{
			CacheDir: "models",
		},
		Runtime: RuntimeConfig{
			ORTLibraryPath: "",
			ORTAPIVersion:  23,
		},
		Framing: FramingConfig{
			TokenFrameLength: 9,
			AudioSampleCount: 16000,
			VideoFrameCount:  30,
			ImageSize:        256,
			NoiseDim:         128,
		},
		Convert: ConvertConfig{
			PlaceholderOnError: false,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 10,
			Workers:         2,
			MaxBodyBytes:    1 << 22,
			RequestTimeout:  120,
		},
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	fs.String("paths-cache-dir", defaults.Paths.CacheDir, "Directory model bundles are cached in")
	fs.String("runtime-ort-library-path", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library (alias for --runtime-ort-library-path)")
	fs.Uint32("runtime-ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version")
	fs.Int("framing-token-frame-length", defaults.Framing.TokenFrameLength, "Fixed symbol sequence length fed to the acoustic model")
	fs.Int("framing-audio-sample-count", defaults.Framing.AudioSampleCount, "Fixed sample count of generated audio")
	fs.Int("framing-video-frame-count", defaults.Framing.VideoFrameCount, "Number of frames in generated video")
	fs.Int("framing-image-size", defaults.Framing.ImageSize, "Side length of generated images")
	fs.Int("framing-noise-dim", defaults.Framing.NoiseDim, "Latent noise dimension of the image generator")
	fs.Bool("convert-placeholder-on-error", defaults.Convert.PlaceholderOnError, "Return zero-filled placeholder output instead of an error when a conversion fails")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("server-workers", defaults.Server.Workers, "Max concurrent conversion calls")
	fs.Int("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Maximum request body size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request conversion deadline in seconds")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
		// Aliases redirect the canonical keys to the flag spellings.
		// Registering them without bound flags moves the defaults off the
		// canonical keys, so only alias when flags are present.
		registerAliases(v)
	}

	v.SetEnvPrefix("CROSSMODAL")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "CROSSMODAL_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("crossmodal")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the conversion layer cannot operate with.
func Validate(cfg Config) error {
	if cfg.Paths.CacheDir == "" {
		return fmt.Errorf("paths.cache_dir must not be empty")
	}
	if cfg.Framing.TokenFrameLength < 1 {
		return fmt.Errorf("framing.token_frame_length must be >= 1, got %d", cfg.Framing.TokenFrameLength)
	}
	if cfg.Framing.AudioSampleCount < 1 {
		return fmt.Errorf("framing.audio_sample_count must be >= 1, got %d", cfg.Framing.AudioSampleCount)
	}
	if cfg.Framing.VideoFrameCount < 1 {
		return fmt.Errorf("framing.video_frame_count must be >= 1, got %d", cfg.Framing.VideoFrameCount)
	}
	if cfg.Framing.ImageSize < 1 {
		return fmt.Errorf("framing.image_size must be >= 1, got %d", cfg.Framing.ImageSize)
	}
	if cfg.Framing.NoiseDim < 1 {
		return fmt.Errorf("framing.noise_dim must be >= 1, got %d", cfg.Framing.NoiseDim)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("paths.cache_dir", c.Paths.CacheDir)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("framing.token_frame_length", c.Framing.TokenFrameLength)
	v.SetDefault("framing.audio_sample_count", c.Framing.AudioSampleCount)
	v.SetDefault("framing.video_frame_count", c.Framing.VideoFrameCount)
	v.SetDefault("framing.image_size", c.Framing.ImageSize)
	v.SetDefault("framing.noise_dim", c.Framing.NoiseDim)
	v.SetDefault("convert.placeholder_on_error", c.Convert.PlaceholderOnError)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("log_level", "log-level")
	v.RegisterAlias("paths.cache_dir", "paths-cache-dir")
	v.RegisterAlias("runtime.ort_library_path", "runtime-ort-library-path")
	v.RegisterAlias("runtime.ort_library_path", "ort-lib")
	v.RegisterAlias("runtime.ort_api_version", "runtime-ort-api-version")
	v.RegisterAlias("framing.token_frame_length", "framing-token-frame-length")
	v.RegisterAlias("framing.audio_sample_count", "framing-audio-sample-count")
	v.RegisterAlias("framing.video_frame_count", "framing-video-frame-count")
	v.RegisterAlias("framing.image_size", "framing-image-size")
	v.RegisterAlias("framing.noise_dim", "framing-noise-dim")
	v.RegisterAlias("convert.placeholder_on_error", "convert-placeholder-on-error")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.shutdown_timeout", "server-shutdown-timeout")
	v.RegisterAlias("server.workers", "server-workers")
	v.RegisterAlias("server.max_body_bytes", "server-max-body-bytes")
	v.RegisterAlias("server.request_timeout", "server-request-timeout")
}
