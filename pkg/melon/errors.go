package melon

import (
	"context"
	"errors"
	"fmt"
	"net"

	melonerrors "github.com/matzehuels/melonchart/pkg/errors"
)

var (
	// ErrRequest matches every *RequestError via errors.Is.
	ErrRequest = errors.New("chart request failed")

	// ErrParse matches every *ParseError via errors.Is.
	ErrParse = errors.New("chart parse failed")

	// ErrIndexOutOfRange matches every *IndexError via errors.Is.
	ErrIndexOutOfRange = errors.New("entry index out of range")
)

// IndexError is returned by [Chart.Entry] for a position outside [0, Len).
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: index %d, length %d", ErrIndexOutOfRange, e.Index, e.Len)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

// Code returns OUT_OF_RANGE.
func (e *IndexError) Code() melonerrors.Code { return melonerrors.ErrCodeOutOfRange }

// RequestError is a transport or status-level failure. It is returned before
// any parsing is attempted.
//
// StatusCode is the HTTP status of a non-200 response, or 0 when no response
// was received, in which case Cause holds the transport error.
type RequestError struct {
	StatusCode int
	Endpoint   string
	Cause      error
}

func (e *RequestError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Cause != nil:
		return fmt.Sprintf("%v: status code %d: %v", ErrRequest, e.StatusCode, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: status code %d", ErrRequest, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%v: %v", ErrRequest, e.Cause)
	default:
		return ErrRequest.Error()
	}
}

func (e *RequestError) Unwrap() error        { return e.Cause }
func (e *RequestError) Is(target error) bool { return target == ErrRequest }

// Code maps the failure onto the shared error code scheme.
func (e *RequestError) Code() melonerrors.Code {
	var ne net.Error
	if e.StatusCode == 0 && (errors.Is(e.Cause, context.DeadlineExceeded) || errors.As(e.Cause, &ne) && ne.Timeout()) {
		return melonerrors.ErrCodeTimeout
	}
	if e.StatusCode == 0 {
		return melonerrors.ErrCodeNetwork
	}
	return melonerrors.ErrCodeRequest
}

// ParseReason classifies why a chart payload could not be mapped.
type ParseReason int

const (
	ReasonMalformedBody ParseReason = iota + 1 // body is not valid JSON
	ReasonMissingField                         // required key or array element absent
	ReasonTypeMismatch                         // value present with the wrong JSON type
	ReasonBadDate                              // RANKDAY/RANKHOUR not "YYYY.MM.DD HH:MM"
	ReasonBadInteger                           // CURRANK/PASTRANK not an integer
)

func (r ParseReason) String() string {
	switch r {
	case ReasonMalformedBody:
		return "malformed body"
	case ReasonMissingField:
		return "missing field"
	case ReasonTypeMismatch:
		return "type mismatch"
	case ReasonBadDate:
		return "bad date"
	case ReasonBadInteger:
		return "bad integer"
	default:
		return fmt.Sprintf("ParseReason(%d)", int(r))
	}
}

// ParseError reports a payload that could not be mapped into a chart.
// Field is the JSON path of the offending value, e.g.
// "response.SONGLIST.3.CURRANK"; it is empty for ReasonMalformedBody.
type ParseError struct {
	Reason ParseReason
	Field  string
	Cause  error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrParse, e.Reason)
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error        { return e.Cause }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Code returns PARSE_FAILED.
func (e *ParseError) Code() melonerrors.Code { return melonerrors.ErrCodeParse }
