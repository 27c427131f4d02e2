package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthentication is returned when the provider rejects the API key
var ErrAuthentication = errors.New("authentication failed")

// TransportKind classifies transport failures
type TransportKind int

const (
	KindUnknown TransportKind = iota
	KindQuotaExceeded
	KindTooLarge
	KindRateLimited
	KindUnavailable
)

// StatusQuotaExceeded is the DeepL status code for an exhausted quota
const StatusQuotaExceeded = 456

func (k TransportKind) String() string {
	switch k {
	case KindQuotaExceeded:
		return "quota exceeded"
	case KindTooLarge:
		return "request too large"
	case KindRateLimited:
		return "rate limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// TransportError is a failure talking to the provider. It is never
// retried automatically.
type TransportError struct {
	Kind       TransportKind
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("provider %s: %s", e.Kind, msg)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError maps an HTTP status code to an error. It returns nil for
// successful codes.
func StatusError(code int, message string) error {
	switch {
	case code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		if message == "" {
			return ErrAuthentication
		}
		return fmt.Errorf("%w: %s", ErrAuthentication, message)
	case code == StatusQuotaExceeded:
		return &TransportError{Kind: KindQuotaExceeded, StatusCode: code, Message: message}
	case code == http.StatusRequestEntityTooLarge:
		return &TransportError{Kind: KindTooLarge, StatusCode: code, Message: message}
	case code == http.StatusTooManyRequests:
		return &TransportError{Kind: KindRateLimited, StatusCode: code, Message: message}
	case code >= 500:
		return &TransportError{Kind: KindUnavailable, StatusCode: code, Message: message}
	default:
		return &TransportError{Kind: KindUnknown, StatusCode: code, Message: message}
	}
}

// Unavailable wraps a network level failure
func Unavailable(err error) error {
	return &TransportError{Kind: KindUnavailable, Err: err}
}

// Describe returns the message shown to the user for err
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrAuthentication) {
		return "Authentication failed! Please check if your API key is correct."
	}

	var te *TransportError
	if !errors.As(err, &te) {
		return err.Error()
	}
	switch te.Kind {
	case KindQuotaExceeded:
		return "Quota exceeded! The character limit of your DeepL plan has been reached."
	case KindTooLarge:
		return "The text is too large to be translated in one request."
	case KindRateLimited:
		return "Too many requests! Please wait a moment and try again."
	case KindUnavailable:
		return "The translation service is currently unavailable. Please try again later."
	default:
		return fmt.Sprintf("Translation failed: %s", te.Error())
	}
}
