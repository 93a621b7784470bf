package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
)

// Watch calls onChange with the reloaded configuration whenever the file at
// configPath changes. Invalid edits are logged and ignored, so the last good
// configuration stays in effect. The watch lives as long as the process.
func Watch(configPath string, onChange func(*Config)) error {
	if configPath == "" {
		configPath = GetDefaultConfigPath()
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to watch config: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("Config file changed", "file", e.Name)

		cfg, err := Load(configPath)
		if err != nil {
			logger.Warn("Ignoring invalid config change", logger.KeyError, err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()

	logger.Debug("Watching config file", "file", configPath)
	return nil
}
