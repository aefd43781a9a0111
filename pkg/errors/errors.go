package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents a fetch that failed after all retries
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents a candidate link that could not be parsed
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents a source that is cooling down after a 429
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypePersist represents a seen-set write that could not complete
	ErrorTypePersist ErrorType = "persist"
	// ErrorTypeNotify represents a notification that was not delivered
	ErrorTypeNotify ErrorType = "notify"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// WatchError is the error type shared by every housewatch component.
// Source names the listing source, state location or channel involved.
type WatchError struct {
	Type       ErrorType
	Source     string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *WatchError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Type)
	if e.Source != "" {
		prefix += " " + e.Source + ":"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %s - %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *WatchError) Unwrap() error {
	return e.Err
}

// New creates a new WatchError
func New(errType ErrorType, source, message string, err error) *WatchError {
	return &WatchError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates the error returned once a fetch exhausted its retries.
// statusCode is the last HTTP status observed, 0 when no response arrived.
func NewFetch(url string, attempts, statusCode int, err error) *WatchError {
	message := fmt.Sprintf("fetch failed after %d attempts", attempts)
	if statusCode != 0 {
		message = fmt.Sprintf("fetch failed after %d attempts: HTTP %d", attempts, statusCode)
	}
	e := New(ErrorTypeNetwork, url, message, err)
	e.StatusCode = statusCode
	return e
}

// NewParsing creates the error logged when a candidate link is dropped
// because it does not parse as a URL
func NewParsing(source, message string, err error) *WatchError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(source string, duration time.Duration) *WatchError {
	message := fmt.Sprintf("rate limited, cooling down for %v", duration)
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewPersist creates the error returned when the seen-set cannot be written
func NewPersist(location, message string, err error) *WatchError {
	return New(ErrorTypePersist, location, message, err)
}

// NewNotify creates the error logged when a channel fails to deliver
func NewNotify(channel, message string, err error) *WatchError {
	return New(ErrorTypeNotify, channel, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *WatchError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *WatchError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of the first WatchError in err's chain.
func TypeOf(err error) (ErrorType, bool) {
	var we *WatchError
	if stderrors.As(err, &we) {
		return we.Type, true
	}
	return "", false
}

// Is reports whether err wraps a WatchError of the given type.
func Is(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// IsFetch reports whether err is a fetch failure.
func IsFetch(err error) bool {
	return Is(err, ErrorTypeNetwork)
}

// IsRateLimit reports whether err is a cooldown skip.
func IsRateLimit(err error) bool {
	return Is(err, ErrorTypeRateLimit)
}

// IsPersist reports whether err is a seen-set write failure.
func IsPersist(err error) bool {
	return Is(err, ErrorTypePersist)
}

// StatusCode returns the HTTP status carried by err, 0 if none.
func StatusCode(err error) int {
	var we *WatchError
	if stderrors.As(err, &we) {
		return we.StatusCode
	}
	return 0
}
