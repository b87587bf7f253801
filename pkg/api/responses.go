package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ha1tch/qaflow/pkg/flow"
	"github.com/ha1tch/qaflow/pkg/session"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{
		Error: &ErrorInfo{Code: code, Message: message},
	})
}

// errorCode maps a command error to its wire code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, flow.ErrLastNode):
		return "cannot_delete_last_node"
	case errors.Is(err, flow.ErrEmptyFlow):
		return "flow_has_no_nodes"
	case errors.Is(err, session.ErrPresenting):
		return "presenting"
	case errors.Is(err, flow.ErrNodeNotFound):
		return "node_not_found"
	}
	return "internal"
}

// respondCommandError reports a failed flow command. Refusals are conflicts
// with the flow's current state.
func respondCommandError(w http.ResponseWriter, err error) {
	code := errorCode(err)
	status := http.StatusConflict
	switch code {
	case "node_not_found":
		status = http.StatusNotFound
	case "internal":
		status = http.StatusInternalServerError
	}
	respondError(w, status, code, err.Error())
}
