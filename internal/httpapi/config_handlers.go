package httpapi

import (
	"net/http"
	"net/url"
	"path/filepath"

	"jobportal-engine/internal/config"
)

type ConfigHandler struct {
	Current func() config.Config // effective
	File    func() config.Config // on disk
	Save    func(config.Config) (config.Config, error)
	Path    string
}

// redacted hides the password in database.url.
func redacted(cfg config.Config) config.Config {
	if u, err := url.Parse(cfg.Database.URL); err == nil && u.User != nil {
		cfg.Database.URL = u.Redacted()
	}
	return cfg
}

// Get returns the file config, the document PUT replaces.
func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, redacted(h.File()))
}

// Effective returns what the engine runs with after overlay and env.
func (h ConfigHandler) Effective(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, redacted(h.Current()))
}

func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	if h.Save == nil {
		WriteError(w, r, http.StatusMethodNotAllowed, "read_only", "config is read-only")
		return
	}

	var incoming config.Config
	if err := decodeJSON(w, r, &incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	// a redacted url coming back means "unchanged"
	cur := h.File()
	if incoming.Database.URL == redacted(cur).Database.URL {
		incoming.Database.URL = cur.Database.URL
	}

	if _, vr := config.NormalizeAndValidate(incoming); !vr.OK() {
		writeError(w, r, http.StatusBadRequest, "validation_failed", "invalid config", vr)
		return
	}

	saved, err := h.Save(incoming)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	writeJSON(w, redacted(saved))
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.Current())
	writeJSON(w, vr)
}

func (h ConfigHandler) PathInfo(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.Path)
	writeJSON(w, map[string]any{"path": abs})
}
