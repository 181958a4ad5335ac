// Package rpc exposes ledger state via a JSON-RPC 2.0 HTTP endpoint.
package rpc

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response envelope. Result is raw JSON so that a
// null result is still sent.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData identifies a registered ledger error.
type ErrorData struct {
	Codespace string `json:"codespace"`
	Code      uint32 `json:"code"`
}

func (e *Error) Error() string {
	return e.Message
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeUnauthorized   = -32000
	CodeRateLimited    = -32001
	CodeLedgerError    = -32002
)

func errResponse(id any, code int, msg string) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: msg},
	}
}

// ledgerErrResponse reports err with its registered codespace and code.
// Unregistered errors are reported as "internal" without detail.
func ledgerErrResponse(id any, err error) Response {
	codespace, code, msg := errorsmod.ABCIInfo(err, false)
	rpcCode := CodeLedgerError
	if codespace == errorsmod.UndefinedCodespace {
		rpcCode = CodeInternalError
	}
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    rpcCode,
			Message: msg,
			Data:    &ErrorData{Codespace: codespace, Code: code},
		},
	}
}

func okResponse(id, result any) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return errResponse(id, CodeInternalError, "encode result: "+err.Error())
	}
	return Response{JSONRPC: "2.0", ID: id, Result: data}
}
