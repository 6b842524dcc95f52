package channel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ContentType is the declared type of a custom reply.
type ContentType string

const (
	ContentLink     ContentType = "link"
	ContentVideo    ContentType = "video"
	ContentImage    ContentType = "image"
	ContentButton   ContentType = "button"
	ContentDropdown ContentType = "dropdown"
)

// ParseContentType reports whether s names a known content type.
func ParseContentType(s string) (ContentType, bool) {
	switch ct := ContentType(s); ct {
	case ContentLink, ContentVideo, ContentImage, ContentButton, ContentDropdown:
		return ct, true
	}
	return "", false
}

// Converter shapes the payload of one content type into a channel's wire
// format.
type Converter interface {
	// MessagingType is the channel's native message category the converted
	// payload is sent as (for example "text" or "interactive").
	MessagingType() string
	Convert(data json.RawMessage) (any, error)
}

// ErrNoConverter is returned for a (content type, channel) pair that has no
// registered converter.
var ErrNoConverter = errors.New("no converter registered")

type converterKey struct {
	content ContentType
	channel ChannelType
}

// ConverterRegistry maps (content type, channel) pairs to converters. It is
// filled at startup and read-only afterwards.
type ConverterRegistry struct {
	converters map[converterKey]Converter
}

// NewConverterRegistry returns an empty registry.
func NewConverterRegistry() *ConverterRegistry {
	return &ConverterRegistry{converters: map[converterKey]Converter{}}
}

// Register binds conv to the pair. A pair can be registered once.
func (r *ConverterRegistry) Register(ct ContentType, ch ChannelType, conv Converter) error {
	if conv == nil {
		return fmt.Errorf("converter for %s/%s is nil", ct, ch)
	}
	if _, ok := ParseContentType(string(ct)); !ok {
		return fmt.Errorf("unknown content type %q", ct)
	}
	k := converterKey{ct, ch}
	if _, dup := r.converters[k]; dup {
		return fmt.Errorf("converter already registered: %s/%s", ct, ch)
	}
	r.converters[k] = conv
	return nil
}

// MustRegister calls Register and panics on error.
func (r *ConverterRegistry) MustRegister(ct ContentType, ch ChannelType, conv Converter) {
	if err := r.Register(ct, ch, conv); err != nil {
		panic(err)
	}
}

// Lookup returns the converter of the pair or an error wrapping
// ErrNoConverter.
func (r *ConverterRegistry) Lookup(ct ContentType, ch ChannelType) (Converter, error) {
	conv, ok := r.converters[converterKey{ct, ch}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoConverter, ct, ch)
	}
	return conv, nil
}
