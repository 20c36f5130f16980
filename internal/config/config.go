package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/menta2k/snipper/pkg/imageio"
	"github.com/menta2k/snipper/pkg/types"
)

// EnvPrefix is prepended to environment overrides, e.g. SNIPPER_THUMBNAILS_DIR
const EnvPrefix = "SNIPPER"

// Config holds the application configuration
type Config struct {
	JSONDir         string                `mapstructure:"json_dir" json:"json_dir"`
	ImagesDir       string                `mapstructure:"images_dir" json:"images_dir"`
	ThumbnailsDir   string                `mapstructure:"thumbnails_dir" json:"thumbnails_dir"`
	OutputDir       string                `mapstructure:"output_dir" json:"output_dir"`
	UsedDir         string                `mapstructure:"used_dir" json:"used_dir"`
	LedgerFile      string                `mapstructure:"ledger_file" json:"ledger_file"`
	MetricsFile     string                `mapstructure:"metrics_file" json:"metrics_file"`
	ThumbnailFormat string                `mapstructure:"thumbnail_format" json:"thumbnail_format"`
	AutoOrient      bool                  `mapstructure:"auto_orient" json:"auto_orient"`
	QKopf           bool                  `mapstructure:"q_kopf" json:"q_kopf"`
	Thumbnails      map[string]types.Size `mapstructure:"thumbnails" json:"thumbnails"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		JSONDir:         "json",
		ImagesDir:       "reference_images",
		ThumbnailsDir:   "thumbnails",
		OutputDir:       "output_json",
		UsedDir:         "used_json",
		ThumbnailFormat: string(imageio.PNG),
		QKopf:           true,
		Thumbnails: map[string]types.Size{
			string(types.Paleography): {Width: 200, Height: 200},
			string(types.Orthography): {Width: 400, Height: 200},
			string(types.Iconography): {Width: 300, Height: 300},
		},
	}
}

// Load builds a Config from defaults, an optional config file and SNIPPER_* environment variables.
// With an empty cfgFile, snipper.yaml is searched in . and $HOME/.config/snipper.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("snipper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/snipper")
	}

	// Config file is optional unless named explicitly
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("json_dir", d.JSONDir)
	v.SetDefault("images_dir", d.ImagesDir)
	v.SetDefault("thumbnails_dir", d.ThumbnailsDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("used_dir", d.UsedDir)
	v.SetDefault("ledger_file", d.LedgerFile)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("thumbnail_format", d.ThumbnailFormat)
	v.SetDefault("auto_orient", d.AutoOrient)
	v.SetDefault("q_kopf", d.QKopf)
	for name, size := range d.Thumbnails {
		v.SetDefault("thumbnails."+name+".width", size.Width)
		v.SetDefault("thumbnails."+name+".height", size.Height)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	dirs := map[string]string{
		"json_dir":       c.JSONDir,
		"images_dir":     c.ImagesDir,
		"thumbnails_dir": c.ThumbnailsDir,
		"output_dir":     c.OutputDir,
		"used_dir":       c.UsedDir,
	}
	for key, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("%s cannot be empty", key)
		}
	}

	if _, err := imageio.ParseFormat(c.ThumbnailFormat); err != nil {
		return fmt.Errorf("thumbnail_format: %w", err)
	}

	for name, size := range c.Thumbnails {
		if _, err := types.ParseArtifactType(name); err != nil {
			return fmt.Errorf("thumbnails: %w", err)
		}
		if size.Width <= 0 || size.Height <= 0 {
			return fmt.Errorf("thumbnails.%s must be positive, got %dx%d", name, size.Width, size.Height)
		}
	}
	for _, t := range types.ArtifactTypes() {
		if _, ok := c.Thumbnails[string(t)]; !ok {
			return fmt.Errorf("thumbnails.%s is not configured", t)
		}
	}

	return nil
}

// ThumbnailSizes returns the per-type maximum thumbnail sizes
func (c *Config) ThumbnailSizes() map[types.ArtifactType]types.Size {
	sizes := make(map[types.ArtifactType]types.Size, len(c.Thumbnails))
	for name, size := range c.Thumbnails {
		sizes[types.ArtifactType(name)] = size
	}
	return sizes
}

// Format returns the validated thumbnail encoding, defaulting to PNG
func (c *Config) Format() imageio.Format {
	f, err := imageio.ParseFormat(c.ThumbnailFormat)
	if err != nil {
		return imageio.PNG
	}
	return f
}
