// Package redsys implements the Redsys HMAC_SHA256_V1 redirect protocol:
// building signed payment requests and verifying asynchronous notifications.
//
// Every function here is a pure transform. Configuration is passed in
// explicitly as a Config value; nothing reads the environment.
package redsys

import (
	"errors"
	"strings"
)

var (
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrInvalidOrderID          = errors.New("invalid order id")
	ErrInvalidSecret           = errors.New("invalid merchant secret")
	ErrInvalidURL              = errors.New("invalid url")
	ErrIncompleteConfiguration = errors.New("incomplete configuration")
	ErrMalformedPayload        = errors.New("malformed payload")
	ErrMissingFields           = errors.New("missing fields")
)

// ConfigError names every missing or invalid configuration key at once.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return ErrIncompleteConfiguration.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ConfigError) Unwrap() error {
	return ErrIncompleteConfiguration
}

// FieldsError lists the required notification fields that were absent or empty.
type FieldsError struct {
	Missing []string
}

func (e *FieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Missing, ", ")
}

func (e *FieldsError) Unwrap() error {
	return ErrMissingFields
}
