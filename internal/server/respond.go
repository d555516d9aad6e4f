package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/minesweeper-engine/internal/mines"
	"github.com/vancomm/minesweeper-engine/internal/records"
	"github.com/vancomm/minesweeper-engine/internal/session"
)

func sendJSON(w http.ResponseWriter, status int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	return err
}

func sendJSONOrLog(w http.ResponseWriter, log *logrus.Logger, status int, v any) {
	if err := sendJSON(w, status, v); err != nil {
		log.WithError(err).Error("unable to send response")
	}
}

type errorPayload struct {
	Error string `json:"error"`
	Line  int    `json:"line,omitempty"`
}

// statusOf maps domain errors onto HTTP statuses.
func statusOf(err error) int {
	var (
		configErr  *mines.ConfigurationError
		moveErr    *session.MoveError
		commandErr *CommandError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrLevelLocked):
		return http.StatusForbidden
	case errors.As(err, &commandErr),
		errors.As(err, &moveErr),
		errors.As(err, &configErr),
		errors.Is(err, mines.ErrOutOfBounds),
		errors.Is(err, records.ErrInvalidTime):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) errorPayload {
	payload := errorPayload{Error: err.Error()}
	var (
		moveErr    *session.MoveError
		commandErr *CommandError
	)
	if errors.As(err, &commandErr) {
		payload.Line = commandErr.Line
	} else if errors.As(err, &moveErr) {
		payload.Line = moveErr.Index + 1
	}
	return payload
}

func sendError(w http.ResponseWriter, log *logrus.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
		err = errors.New(http.StatusText(status))
	}
	sendJSONOrLog(w, log, status, errorBody(err))
}
