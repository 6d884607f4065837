package session

import "errors"

var (
	ErrNotFound           = errors.New("session not found")
	ErrUnknownModel       = errors.New("unknown model")
	ErrMissingRequirement = errors.New("please upload an image and select a model")
	ErrSuperseded         = errors.New("request superseded by a newer one")
	ErrExplainNotOffered  = errors.New("explanation requires a classification of the current image and model")
)
