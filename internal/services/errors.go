// Package services defines the business logic for bot training data, the
// bot domain, and channel configuration. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer. Validation failures are *domain.ValidationError and are
// passed through unchanged.
package services

import "errors"

// ErrAlreadyExists is matched by every uniqueness failure of an add or save
// operation. The concrete errors below carry the message shown to callers.
var ErrAlreadyExists = errors.New("already exists")

type existsError struct{ msg string }

func (e *existsError) Error() string        { return e.msg }
func (e *existsError) Is(target error) bool { return target == ErrAlreadyExists }

// Uniqueness errors.
var (
	ErrIntentExists        error = &existsError{"Intent already exists!"}
	ErrEntityExists        error = &existsError{"Entity already exists!"}
	ErrActionExists        error = &existsError{"Action already exists!"}
	ErrExampleExists       error = &existsError{"Training Example already exists!"}
	ErrSessionConfigExists error = &existsError{"Session Config already exists for the bot"}
	ErrConfigExists        error = &existsError{"Config already exists for the bot"}
)

var (
	// ErrDocumentNotFound is returned when a removal targets an id that does
	// not exist for the bot. The underlying cause is logged, not exposed.
	ErrDocumentNotFound = errors.New("unable to remove document")

	// ErrUnknownCollection is returned when a removal names a collection
	// that does not exist.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidInput wraps domain-shape violations found while importing
	// a project.
	ErrInvalidInput = errors.New("failed to validate yaml file, please make sure the file is correct and all mandatory parameters are specified")

	// ErrInternal replaces storage failures; the original error is logged.
	ErrInternal = errors.New("internal server error")

	// ErrChannelNotConfigured is returned when a bot has no credentials for
	// the requested channel.
	ErrChannelNotConfigured = errors.New("channel not configured for bot")
)
