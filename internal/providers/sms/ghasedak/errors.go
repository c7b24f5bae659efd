package ghasedak

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrorKind classifies a DeliveryError.
type ErrorKind string

const (
	KindAPIKeyMissing      ErrorKind = "api_key_missing"
	KindTemplateNotFound   ErrorKind = "template_not_found"
	KindEmptyMessage       ErrorKind = "empty_message"
	KindEmptyReceptor      ErrorKind = "empty_receptor"
	KindInvalidPhoneNumber ErrorKind = "invalid_phone_number"
	KindHTTPError          ErrorKind = "http_error"
	KindProviderRejected   ErrorKind = "provider_rejected"
	KindSendFailed         ErrorKind = "send_failed"
	KindSystemError        ErrorKind = "system_error"
	KindMethodNotFound     ErrorKind = "method_not_found"
)

// Sentinel errors matched by errors.Is against any *DeliveryError of the same kind.
var (
	ErrAPIKeyMissing      = errors.New("ghasedak: api key missing")
	ErrTemplateNotFound   = errors.New("ghasedak: template not found")
	ErrEmptyMessage       = errors.New("ghasedak: empty message")
	ErrEmptyReceptor      = errors.New("ghasedak: empty receptor")
	ErrInvalidPhoneNumber = errors.New("ghasedak: invalid phone number")
	ErrHTTP               = errors.New("ghasedak: http error")
	ErrProviderRejected   = errors.New("ghasedak: provider rejected request")
	ErrSendFailed         = errors.New("ghasedak: send failed")
	ErrSystem             = errors.New("ghasedak: system error")
	ErrMethodNotFound     = errors.New("ghasedak: method not found")
)

var kindSentinels = map[ErrorKind]error{
	KindAPIKeyMissing:      ErrAPIKeyMissing,
	KindTemplateNotFound:   ErrTemplateNotFound,
	KindEmptyMessage:       ErrEmptyMessage,
	KindEmptyReceptor:      ErrEmptyReceptor,
	KindInvalidPhoneNumber: ErrInvalidPhoneNumber,
	KindHTTPError:          ErrHTTP,
	KindProviderRejected:   ErrProviderRejected,
	KindSendFailed:         ErrSendFailed,
	KindSystemError:        ErrSystem,
	KindMethodNotFound:     ErrMethodNotFound,
}

// DeliveryError is the single error type returned by the client. Code is either a
// provider-issued code rendered as text or one of the symbolic Code* constants.
type DeliveryError struct {
	Kind    ErrorKind
	Code    string
	Message string
	// Status is the HTTP status for KindHTTPError; zero when no response arrived.
	Status int
	// Detail carries provider-supplied text, when present.
	Detail string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("ghasedak: %s: %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the kind sentinel and the underlying cause.
func (e *DeliveryError) Unwrap() []error {
	if e == nil {
		return nil
	}
	var errs []error
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// AsDeliveryError extracts a *DeliveryError from err's chain.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// NewError builds a DeliveryError whose message is Describe(gen, code).
func NewError(gen Generation, kind ErrorKind, code string) *DeliveryError {
	return &DeliveryError{
		Kind:    kind,
		Code:    code,
		Message: Describe(gen, code),
	}
}

func templateNotFound(key string) *DeliveryError {
	err := NewError("", KindTemplateNotFound, CodeTemplateNotFound)
	err.Message = fmt.Sprintf("%s: %q", err.Message, key)
	return err
}

func invalidPhone(digits string) *DeliveryError {
	err := NewError("", KindInvalidPhoneNumber, CodeInvalidPhoneNumber)
	err.Message = fmt.Sprintf("%s: %s", err.Message, digits)
	return err
}

func httpError(status int, cause error) *DeliveryError {
	err := NewError("", KindHTTPError, CodeHTTPError)
	err.Status = status
	err.Err = cause
	if status > 0 {
		err.Message = err.Message + ": " + strconv.Itoa(status)
	} else if cause != nil {
		err.Message = err.Message + ": no response"
	}
	return err
}

func systemError(cause error) *DeliveryError {
	err := NewError("", KindSystemError, CodeSystemError)
	err.Err = cause
	if cause != nil {
		err.Detail = cause.Error()
	}
	return err
}

func rejected(gen Generation, code, detail string) *DeliveryError {
	err := NewError(gen, KindProviderRejected, code)
	err.Detail = detail
	return err
}

// sendFailed is used when the provider reported success but the message id is at
// or below the generation's sentinel. The legacy API overloads the id field with
// its error code, so a known code keeps its mapped message.
func sendFailed(gen Generation, code string) *DeliveryError {
	err := &DeliveryError{Kind: KindSendFailed, Code: code}
	if msg, ok := lookup(gen, code); ok {
		err.Message = msg
	} else {
		err.Message = Describe(gen, CodeSendFailed)
	}
	return err
}

// wrapUnexpected converts any non-DeliveryError into a system error.
func wrapUnexpected(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsDeliveryError(err); ok {
		return err
	}
	return systemError(err)
}
