package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type codedErr struct {
	code string
}

func (e codedErr) Error() string             { return e.code }
func (e codedErr) CodeValue() string         { return e.code }
func (e codedErr) MessageValue() string      { return "message for " + e.code }
func (e codedErr) RecoveryHintValue() string { return "hint" }

func TestParseRequest(t *testing.T) {
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"test","params":{"a":1},"id":1}`)
	req, err := ParseRequest(body)
	require.NoError(t, err)
	require.Equal(t, "2.0", req.JSONRPC)
	require.Equal(t, "test", req.Method)
	require.Equal(t, json.RawMessage(`{"a":1}`), req.Params)
}

func TestParseRequest_Invalid(t *testing.T) {
	_, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0","id":1}`))
	require.Error(t, err)
	require.Equal(t, ErrInvalidReq, ErrorCode(err))

	_, err = ParseRequest(bytes.NewBufferString(`{"jsonrpc":`))
	require.Error(t, err)
	require.Equal(t, ErrParseCode, ErrorCode(err))
}

func TestNewError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantData string
	}{
		{"domain rejection", codedErr{"DUPLICATE_WEEK_NUMBER"}, ErrApplication, "DUPLICATE_WEEK_NUMBER"},
		{"wrapped domain rejection", fmt.Errorf("admit: %w", codedErr{"FUTURE_WEEK"}), ErrApplication, "FUTURE_WEEK"},
		{"invalid params", codedErr{CodeInvalidParams}, ErrInvalidParams, CodeInvalidParams},
		{"persistence", codedErr{CodePersistenceUnavailable}, ErrInternal, CodePersistenceUnavailable},
		{"unknown method", fmt.Errorf("%w: nope", ErrUnknownMethod), ErrMethodNotFound, ""},
		{"plain error", errors.New("boom"), ErrInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpcErr := NewError(tt.err)
			require.Equal(t, tt.wantCode, rpcErr.Code)
			if tt.wantData == "" {
				require.Nil(t, rpcErr.Data)
				return
			}
			require.NotNil(t, rpcErr.Data)
			require.Equal(t, tt.wantData, rpcErr.Data.Code)
			require.Equal(t, "hint", rpcErr.Data.RecoveryHint)
		})
	}
}

func TestNewError_HidesInternalText(t *testing.T) {
	rpcErr := NewError(errors.New("dial tcp 10.0.0.1: refused"))
	require.Equal(t, "internal error", rpcErr.Message)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 1, &Error{Code: ErrInvalidParams, Message: "bad params"})

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), `"error"`)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
