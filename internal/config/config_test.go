package config

import (
	"os"
	"path/filepath"
	"testing"

	"jobportal-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	_, res := NormalizeAndValidate(Default())
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestSourceRefs_LeverThenGreenhouse(t *testing.T) {
	cfg := Default()
	cfg.Sources.Lever.Companies = []Company{{Slug: " netflix "}}

	got := cfg.SourceRefs()
	require.Len(t, got, 5)
	assert.Equal(t, domain.SourceRef{Platform: "lever", Company: domain.Company{Slug: "netflix"}}, got[0])
	assert.Equal(t, "greenhouse:stripe", got[1].ID())
	assert.Equal(t, "Stripe", got[1].Company.DisplayName())

	cfg.Sources.Greenhouse.Enabled = false
	assert.Len(t, cfg.SourceRefs(), 1)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 8080\ningest:\n  workers: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.Equal(t, 30, cfg.Ingest.RequestTimeoutSeconds)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATABASE_URL":       "postgres://u@localhost/jobs",
		"JOBPORTAL_DATA_DIR": "/var/lib/jobs",
		"PORT":               "9090",
		"LOG_LEVEL":          "debug",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u@localhost/jobs", cfg.Database.URL)
	assert.Equal(t, "/var/lib/jobs", cfg.App.DataDir)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.App.Port = 0
	cfg.Database.Driver = " Postgres "
	cfg.Ingest.Workers = 0
	cfg.Ingest.Schedule = "every now and then"
	cfg.Query.DefaultDays = 400
	cfg.Sources.Greenhouse.Companies = []Company{{Slug: "stripe"}, {Slug: " Stripe "}, {Slug: ""}, {Slug: "airbnb"}}

	out, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Equal(t, "postgres", out.Database.Driver)
	assert.Equal(t, []Company{{Slug: "stripe"}, {Slug: "airbnb"}}, out.Sources.Greenhouse.Companies)
	assert.Len(t, res.Errors, 5)
	assert.Error(t, Validate(cfg))
}

func TestEnsureUserConfig_WritesOnce(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.App.DataDir)

	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 7000\n"), 0o644))
	_, err = EnsureUserConfig(dir)
	require.NoError(t, err)
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.App.Port)
}

func TestSaveAtomic_KeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, SaveAtomic(path, Default()))

	cfg := Default()
	cfg.App.Port = 6000
	require.NoError(t, SaveAtomic(path, cfg))

	_, err := os.Stat(path + ".bak")
	assert.NoError(t, err)
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6000, got.App.Port)
}

func TestOverlayCompanies(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	require.NoError(t, OverlayCompanies(&cfg, filepath.Join(dir, "missing.yml")))
	assert.Len(t, cfg.Sources.Greenhouse.Companies, 4)

	path := filepath.Join(dir, "companies.yml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  lever:\n    companies:\n      - slug: plaid\n        name: Plaid\n"), 0o644))
	require.NoError(t, OverlayCompanies(&cfg, path))
	assert.Equal(t, []Company{{Slug: "plaid", Name: "Plaid"}}, cfg.Sources.Lever.Companies)
	assert.Len(t, cfg.Sources.Greenhouse.Companies, 4)
}

func TestEffective_LeavesFileConfigAlone(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "companies.yml"), []byte("sources:\n  lever:\n    companies:\n      - slug: plaid\n"), 0o644))

	file := Default()
	env := map[string]string{"DATABASE_URL": "postgres://app:pw@db/jobs", "PORT": "9000"}
	eff, vr, err := Effective(file, cfgPath, "/var/lib/jobs", func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.True(t, vr.OK(), "errors: %v", vr.Errors)

	assert.Equal(t, "postgres", eff.Database.Driver)
	assert.Equal(t, 9000, eff.App.Port)
	assert.Equal(t, "/var/lib/jobs", eff.App.DataDir)
	assert.Equal(t, []Company{{Slug: "plaid"}}, eff.Sources.Lever.Companies)

	assert.Equal(t, Default(), file)
}
