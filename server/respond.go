package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"Atlas/core/indexer"
	"Atlas/logger"
	"Atlas/model"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response", logger.ErrorField(err))
	}
}

// writeError maps the domain sentinels onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, model.ErrInvalidRelation), errors.Is(err, indexer.ErrBusy):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.Error("request failed", logger.ErrorField(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, format string, args ...interface{}) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func pathID(r *http.Request, name string) (model.ID, error) {
	raw := mux.Vars(r)[name]
	id, err := model.ParseID(raw)
	if err != nil {
		return model.NilID, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (model.ID, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return model.NilID, false, nil
	}
	id, err := model.ParseID(raw)
	if err != nil {
		return model.NilID, false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, true, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
