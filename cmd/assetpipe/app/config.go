package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "ASSETPIPE"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Merge configuration
	Layers    []string
	BackupDir string
	HooksDir  string
	Preserve  bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by UpdateFromFlags)
// 2. Environment variables (ASSETPIPE_*)
// 3. .env files
// 4. Config file (./.assetpipe.yaml or ~/.assetpipe.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(os.Getenv(EnvPrefix + "_CONFIG"))
}

func loadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("preserve", true)
	v.SetDefault("backup_dir", os.TempDir())
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".assetpipe")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine unless it was asked for
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return nil, err
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Layers:    splitList(v.GetStringSlice("layers")),
		BackupDir: v.GetString("backup_dir"),
		HooksDir:  v.GetString("hooks_dir"),
		Preserve:  v.GetBool("preserve"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}
	return config, nil
}

// UpdateFromFlags copies every flag the user set onto the config, so flags
// take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(flags *pflag.FlagSet) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "verbose":
			c.Verbose, _ = flags.GetBool(f.Name)
		case "quiet":
			c.Quiet, _ = flags.GetBool(f.Name)
		case "no-color":
			c.NoColor, _ = flags.GetBool(f.Name)
		case "format":
			c.Format, _ = flags.GetString(f.Name)
		case "log-level":
			c.LogLevel, _ = flags.GetString(f.Name)
		case "backup-dir":
			c.BackupDir, _ = flags.GetString(f.Name)
		case "hooks-dir":
			c.HooksDir, _ = flags.GetString(f.Name)
		}
	})
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is read first so its values win over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// splitList accepts both a YAML list and a comma separated env value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
