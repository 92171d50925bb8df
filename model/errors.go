package model

import "errors"

var (
	// ErrInputUnavailable is returned when manuscript text or a model collaborator fails
	ErrInputUnavailable = errors.New("input unavailable")
	// ErrMalformedMention marks a mention without chapter or kind
	ErrMalformedMention = errors.New("malformed mention")
)
