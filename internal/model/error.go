package model

import "errors"

// ErrNotFound is returned by stores when no payment intent matches.
var ErrNotFound = errors.New("payment intent not found")

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
