// Package web holds the JSON response helpers shared by all HTTP handlers.
// Every failure body carries a machine-readable code next to the message so
// clients can branch (retry, re-auth, show quota countdown) without string
// matching.
package web

import (
	"encoding/json"
	"net/http"
)

// Error codes surfaced to clients.
const (
	CodeInvalidArgument = "invalid_argument"
	CodeUnauthorized    = "unauthorized"
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeQuotaExceeded   = "quota_exceeded"
	CodeAtGenesis       = "at_genesis"
	CodeAtHead          = "at_head"
	CodeInternal        = "internal"
	CodeUnavailable     = "unavailable"
	CodeUpstream        = "upstream_error"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, errorBody{Error: msg, Code: code})
}
