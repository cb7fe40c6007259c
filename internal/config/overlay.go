// config/overlay.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CompaniesFile is the optional companies.yml next to config.yml.
type CompaniesFile struct {
	Sources struct {
		Greenhouse struct {
			Companies []Company `yaml:"companies"`
		} `yaml:"greenhouse"`
		Lever struct {
			Companies []Company `yaml:"companies"`
		} `yaml:"lever"`
	} `yaml:"sources"`
}

func OverlayCompanies(cfg *Config, companiesPath string) error {
	b, err := os.ReadFile(companiesPath)
	if err != nil {
		// Missing companies file should not kill startup
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var cf CompaniesFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return err
	}

	if len(cf.Sources.Greenhouse.Companies) > 0 {
		cfg.Sources.Greenhouse.Companies = cf.Sources.Greenhouse.Companies
	}
	if len(cf.Sources.Lever.Companies) > 0 {
		cfg.Sources.Lever.Companies = cf.Sources.Lever.Companies
	}
	return nil
}

// Effective is what the engine runs with: file, then companies.yml from the
// config's directory, then the environment, then dataDir, normalized. file
// itself is not modified, so it stays safe to write back to disk.
func Effective(file Config, cfgPath, dataDir string, getenv func(string) string) (Config, Validation, error) {
	cfg := file
	if err := OverlayCompanies(&cfg, filepath.Join(filepath.Dir(cfgPath), "companies.yml")); err != nil {
		return Config{}, Validation{}, fmt.Errorf("companies overlay: %w", err)
	}
	ApplyEnv(&cfg, getenv)
	cfg.App.DataDir = dataDir

	out, vr := NormalizeAndValidate(cfg)
	return out, vr, nil
}
