// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package relay

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/acmeusd/sponsor/core/types"
	"github.com/acmeusd/sponsor/sponsor"
	"github.com/ethereum/go-ethereum/rpc"
)

const (
	errcodeMethodNotFound = -32601
	errcodeInternal       = -32603
	errcodeLimitExceeded  = -32005
)

var (
	// ErrInvalidRequest covers bodies that are not a single well-formed call.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrChainTimeout means the chain did not answer in time. The transaction
	// may or may not have been accepted.
	ErrChainTimeout = errors.New("chain rpc timeout: transaction status unknown, check the chain before resubmitting")

	ErrRateLimited = errors.New("sponsorship rate limit exceeded")
	ErrNoFeePayer  = errors.New("fee payer not configured")
)

// UnsupportedMethodError is returned for methods outside the submission family.
//
// 方法不在支持列表中，返回 -32601 与 HTTP 400。
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("Method not supported: %s", e.Method)
}

func (e *UnsupportedMethodError) ErrorCode() int { return errcodeMethodNotFound }

// ChainError is a JSON-RPC error returned by the chain. Code, message and data
// are passed to the caller unchanged.
//
// 链节点拒绝交易时的错误，code 与 message 原样透传给调用方。
type ChainError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *ChainError) Error() string          { return e.Message }
func (e *ChainError) ErrorCode() int         { return e.Code }
func (e *ChainError) ErrorData() interface{} { return e.Data }

// errorKind classifies err for logs and metrics.
//
// 仅用于日志和指标分类，不会出现在响应中。
func errorKind(err error) string {
	var (
		unsupported *UnsupportedMethodError
		chainErr    *ChainError
	)
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.As(err, &unsupported):
		return "unsupported_method"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, types.ErrMalformedEnvelope):
		return "malformed_envelope"
	case errors.Is(err, types.ErrMalformedMarker):
		return "malformed_marker"
	case errors.Is(err, sponsor.ErrMissingSenderSignature):
		return "missing_sender_signature"
	case errors.Is(err, sponsor.ErrSelfSponsorship),
		errors.Is(err, sponsor.ErrFeeTokenNotAllowed),
		errors.Is(err, sponsor.ErrNoFeeToken),
		errors.Is(err, sponsor.ErrChainIDMismatch):
		return "policy"
	case errors.Is(err, sponsor.ErrSignatureIntegrity):
		return "signature_integrity"
	case errors.Is(err, ErrChainTimeout):
		return "chain_timeout"
	case errors.As(err, &chainErr):
		return "chain_error"
	default:
		return "internal"
	}
}

// httpStatus maps a dispatch error to the HTTP status of the response.
//
// 注意：这里的状态码与纯 JSON-RPC 语义不同，保持与外层服务的兼容。
func httpStatus(err error) int {
	var unsupported *UnsupportedMethodError
	switch {
	case errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// errorObject returns the JSON-RPC error fields for err. Chain errors keep
// their own code; everything else is an internal error.
func errorObject(err error) (code int, message string, data interface{}) {
	var (
		unsupported *UnsupportedMethodError
		chainErr    *ChainError
	)
	switch {
	case errors.As(err, &unsupported):
		return unsupported.ErrorCode(), unsupported.Error(), nil
	case errors.Is(err, ErrRateLimited):
		return errcodeLimitExceeded, ErrRateLimited.Error(), nil
	case errors.As(err, &chainErr):
		return chainErr.Code, chainErr.Message, chainErr.Data
	case errors.Is(err, ErrChainTimeout):
		return errcodeInternal, ErrChainTimeout.Error(), nil
	}
	return errcodeInternal, err.Error(), nil
}

// chainError converts an error of the rpc client into a ChainError when the
// chain answered with a JSON-RPC error object.
//
// 将 rpc.Error / rpc.DataError 转换为 ChainError，其余错误原样返回。
func chainError(err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	ce := &ChainError{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		ce.Data = dataErr.ErrorData()
	}
	return ce
}
