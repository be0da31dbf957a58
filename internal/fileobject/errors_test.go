package fileobject

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusRequestEntityTooLarge, ErrPayloadTooLarge},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusInternalServerError, ErrUnknownTransfer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := statusError(PhaseTransferring, tt.status, []byte(" {\"msg\":\"bad\"}\n"))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, `{"msg":"bad"}`, err.Body)
		})
	}
}

func TestTransferErrorMessage(t *testing.T) {
	err := statusError(PhaseTransferring, http.StatusBadRequest, []byte(`{"msg":"bad"}`))
	assert.Equal(t, `transfer: storage provider rejected the request (status 400): {"msg":"bad"}`, err.Error())

	err = statusError(PhasePreparing, http.StatusUnauthorized, []byte(`secret details`))
	assert.NotContains(t, err.Error(), "secret details")

	cause := errors.New("dial tcp: boom")
	te := &TransferError{Kind: ErrUnreachable, Phase: PhasePreparing, Err: cause}
	assert.ErrorIs(t, te, cause)
	assert.ErrorIs(t, te, ErrUnreachable)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransportKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "deadline", err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded), want: ErrTimeout},
		{name: "net timeout", err: timeoutErr{}, want: ErrTimeout},
		{name: "dns", err: &net.DNSError{Err: "no such host", Name: "api.invalid", IsNotFound: true}, want: ErrUnreachable},
		{name: "refused", err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, want: ErrUnreachable},
		{name: "other", err: errors.New("x509: certificate signed by unknown authority"), want: ErrUnknownTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transportKind(tt.err))

			te := transportError(PhaseTransferring, tt.err)
			assert.ErrorIs(t, te, tt.want)
			assert.ErrorIs(t, te, tt.err)
		})
	}
}
