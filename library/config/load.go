// Package config loads settings file into the shared go-config instance.
package config

import (
	"path/filepath"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-blog-rest/library/log"
)

// LoadFromFile load settings from cfgPath, panic if failed
func LoadFromFile(cfgPath string) {
	gconfig.S.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.S.LoadFromFile(cfgPath); err != nil {
		log.Logger.Panic("load configuration",
			zap.Error(err),
			zap.String("config", cfgPath))
	}

	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
}

// GetIntOr returns the configured int at key, or def if key is unset or not positive
func GetIntOr(key string, def int) int {
	if v := gconfig.S.GetInt(key); v > 0 {
		return v
	}

	return def
}
