package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/format"
	"github.com/JonMunkholm/dipsw/internal/logging"
	"github.com/JonMunkholm/dipsw/internal/source"
	"github.com/JonMunkholm/dipsw/internal/store"
	"github.com/go-chi/chi/v5"
)

// ImportResponse is returned by a successful import.
type ImportResponse struct {
	Success  bool   `json:"success"`
	Model    string `json:"model"`
	Inserted int64  `json:"inserted"`
}

// ParseResponse is returned by the parse endpoint.
type ParseResponse struct {
	Model   string         `json:"model"`
	Records []dipsw.Record `json:"records"`
	Stats   dipsw.Stats    `json:"stats"`
}

// modelAliases maps variant models to the model whose manual documents them.
var modelAliases = map[string]string{
	"C6085": "C6100",
	"C6080": "C6100",
	"C4070": "C4080",
	"C4065": "C4080",
}

// resolveModel normalizes a requested model name and follows aliases.
func resolveModel(model string) string {
	model = store.NormalizeModel(model)
	if alias, ok := modelAliases[model]; ok {
		return alias
	}
	return model
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}

// handleImport replaces the stored records of one model with the posted
// JSON array.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)

	var records []dipsw.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		err = wrapDecodeError(err)
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, r, err, status)
		return
	}

	model, err := validateImport(records)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		w.Header().Set("Retry-After", "5")
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.limiter.Release()

	inserted, err := s.store.ReplaceModel(r.Context(), model, records)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logging.WithFields(r.Context(), "model", model).Info("model imported", "inserted", inserted)
	writeJSON(w, r, http.StatusOK, ImportResponse{Success: true, Model: model, Inserted: inserted})
}

// validateImport checks that records are non-empty, share one model and
// address non-negative keys. It returns the normalized model.
func validateImport(records []dipsw.Record) (string, error) {
	if len(records) == 0 {
		return "", store.ErrNoRecords
	}

	model := store.NormalizeModel(records[0].ModelName)
	if model == "" {
		return "", dipsw.ErrEmptyModel
	}

	for i, rec := range records {
		if m := store.NormalizeModel(rec.ModelName); m != model {
			return "", fmt.Errorf("%w: record %d has %q, expected %q", errMixedModels, i, m, model)
		}
		if rec.SwitchNumber < 0 || rec.BitNumber < 0 {
			return "", fmt.Errorf("%w: record %d is %d-%d", errInvalidKey, i, rec.SwitchNumber, rec.BitNumber)
		}
	}
	return model, nil
}

// handleParse runs the assembler over a posted JSON table dump.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	model := store.NormalizeModel(r.URL.Query().Get("model"))
	if model == "" {
		respondError(w, r, errModelParam, http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
	pages, err := source.DecodeJSON(r.Context(), r.Body)
	if err != nil {
		err = wrapDecodeError(err)
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(w, r, err, status)
		return
	}

	result := s.assembler.Assemble(model, pages)
	records := result.Records
	if records == nil {
		records = []dipsw.Record{}
	}
	writeJSON(w, r, http.StatusOK, ParseResponse{Model: model, Records: records, Stats: result.Stats})
}

func (s *Server) handleListSwitches(w http.ResponseWriter, r *http.Request) {
	q, err := switchQuery(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	records, err := s.store.ListSwitches(r.Context(), q)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []dipsw.Record{}
	}
	writeJSON(w, r, http.StatusOK, records)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.store.ListModels(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if models == nil {
		models = []string{}
	}
	writeJSON(w, r, http.StatusOK, models)
}

// handleExport downloads the stored records of one model as JSON, SQL or
// CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	model := resolveModel(chi.URLParam(r, "model"))
	if model == "" {
		respondError(w, r, errModelParam, http.StatusBadRequest)
		return
	}

	f := format.CSV
	if v := r.URL.Query().Get("format"); v != "" {
		var err error
		if f, err = format.Parse(v); err != nil {
			respondError(w, r, fmt.Errorf("%w: %v", errInvalidFormat, err), http.StatusBadRequest)
			return
		}
	}

	records, err := s.store.ListSwitches(r.Context(), store.SwitchQuery{Model: model})
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if len(records) == 0 {
		respondError(w, r, fmt.Errorf("%w: %s", errUnknownModel, model), http.StatusNotFound)
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", model, time.Now().Format("20060102_150405"), f)
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := format.Write(w, f, records, false); err != nil {
		// Headers are already sent
		logging.FromContext(r.Context()).Error("export failed", "model", model, "error", err)
	}
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.limiter.Status())
}

// switchQuery reads model, switch and bit from the query string.
func switchQuery(r *http.Request) (store.SwitchQuery, error) {
	params := r.URL.Query()
	q := store.SwitchQuery{Model: resolveModel(params.Get("model"))}
	if q.Model == "" {
		return q, errModelParam
	}

	var err error
	if q.Switch, err = optionalInt(params.Get("switch")); err != nil {
		return q, fmt.Errorf("%w: switch %v", errInvalidKey, err)
	}
	if q.Bit, err = optionalInt(params.Get("bit")); err != nil {
		return q, fmt.Errorf("%w: bit %v", errInvalidKey, err)
	}
	return q, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%d is negative", n)
	}
	return &n, nil
}
