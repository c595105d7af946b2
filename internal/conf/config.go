// config.go: settings struct and viper-based loading for the voice archive.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// DatabaseSettings contains settings for the persistent store.
type DatabaseSettings struct {
	Path string // path to the SQLite database file
}

// CaptureSettings contains settings for microphone capture.
type CaptureSettings struct {
	Device         string // capture device name or ID, "sysdefault" for OS default
	AcquireTimeout int    // device acquisition timeout in seconds
}

// WebSettings contains settings for the HTTP surface.
type WebSettings struct {
	Address string // listen address for the HTTP API, e.g. ":8090"
}

// LogSettings contains settings for file logging.
type LogSettings struct {
	Path  string // directory for service log files
	Level string // minimum log level: debug, info, warn, error
}

// Settings is the top level configuration struct.
type Settings struct {
	Debug   bool // true to enable debug logging
	Main    struct {
		Name string // instance name, used in notifications
		Log  LogSettings
	}
	Database DatabaseSettings
	Capture  CaptureSettings
	Web      WebSettings
}

var (
	settingsInstance *Settings
	settingsOnce     sync.Once
)

// Setting returns the global settings instance, loading it on first use.
func Setting() *Settings {
	settingsOnce.Do(func() {
		settingsInstance = defaultSettings()
	})
	return settingsInstance
}

func defaultSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "voicevault"
	s.Main.Log.Path = "logs"
	s.Main.Log.Level = "info"
	s.Database.Path = "voicevault.db"
	s.Capture.Device = "sysdefault"
	s.Capture.AcquireTimeout = 10
	s.Web.Address = ":8090"
	return s
}

// Load reads the configuration file (if present) and environment overrides
// into the global settings. Missing config files are not an error, defaults
// apply.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		for _, dir := range configDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("VOICEVAULT")
	v.AutomaticEnv()

	setDefaults(v)

	// A missing config file is fine, defaults apply. A config file that
	// exists but cannot be read is not, wherever it was found.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	s := Setting()
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("main.name", "voicevault")
	v.SetDefault("main.log.path", "logs")
	v.SetDefault("main.log.level", "info")
	v.SetDefault("database.path", "voicevault.db")
	v.SetDefault("capture.device", "sysdefault")
	v.SetDefault("capture.acquiretimeout", 10)
	v.SetDefault("web.address", ":8090")
}

// configDirs returns the platform config directories searched for
// config.yaml, most specific first.
func configDirs() []string {
	var dirs []string
	if userDir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(userDir, "voicevault"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "voicevault"))
	}
	return dirs
}
