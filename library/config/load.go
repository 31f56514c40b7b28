// Package config loads settings into the shared go-config instance.
package config

import (
	"path/filepath"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/laisky-blog-search/library/log"
)

// LoadFromFile load yaml settings into gconfig.Shared
func LoadFromFile(cfgPath string) error {
	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		return errors.Wrapf(err, "load configuration %q", cfgPath)
	}

	log.Logger.Info("load configuration", zap.String("config", cfgPath))
	return nil
}
