package fileobject

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

var (
	ErrConfig          = errors.New("storage is not configured")
	ErrEmptyFile       = errors.New("file is empty")
	ErrPrepareFailed   = errors.New("storage provider returned no upload slot")
	ErrAuth            = errors.New("storage provider rejected the credentials, check the API key")
	ErrPayloadTooLarge = errors.New("file exceeds the storage provider size limit")
	ErrRateLimited     = errors.New("storage provider rate limit reached, try again later")
	ErrBadRequest      = errors.New("storage provider rejected the request")
	ErrTimeout         = errors.New("storage provider did not respond in time")
	ErrUnreachable     = errors.New("storage provider is unreachable, check network connectivity")
	ErrUnknownTransfer = errors.New("file transfer failed")
)

// Phase names a step of the upload handshake.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhasePreparing    Phase = "prepare"
	PhaseTransferring Phase = "transfer"
	PhaseCompleting   Phase = "complete"
	PhaseDone         Phase = "done"
	PhaseDeleting     Phase = "delete"
)

// TransferError is returned when a fatal phase of a provider call fails.
// errors.Is matches both Kind and the underlying cause.
type TransferError struct {
	Kind       error
	Phase      Phase
	StatusCode int
	Body       string
	Err        error
}

func (e *TransferError) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Phase))
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}

	if e.Body != "" && (e.Kind == ErrBadRequest || e.Kind == ErrUnknownTransfer) {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	return b.String()
}

func (e *TransferError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// statusError classifies a non-2xx provider response.
func statusError(phase Phase, status int, body []byte) *TransferError {
	kind := ErrUnknownTransfer

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrAuth
	case http.StatusRequestEntityTooLarge:
		kind = ErrPayloadTooLarge
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	case http.StatusBadRequest:
		kind = ErrBadRequest
	}

	return &TransferError{
		Kind:       kind,
		Phase:      phase,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
}

// transportError classifies a failure that happened before any response arrived.
func transportError(phase Phase, err error) *TransferError {
	var te *TransferError
	if errors.As(err, &te) {
		return te
	}

	return &TransferError{
		Kind:  transportKind(err),
		Phase: phase,
		Err:   err,
	}
}

func transportKind(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrUnreachable
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return ErrUnreachable
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrUnreachable
	}

	return ErrUnknownTransfer
}
