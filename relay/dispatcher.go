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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/acmeusd/sponsor/core/types"
	"github.com/acmeusd/sponsor/sponsor"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const maxRequestContentLength = 1024 * 1024 * 5 // 请求体最大 5MB。

// Dispatcher is the JSON-RPC entry point of the relay. Transactions carrying
// the sponsorship marker are co-signed by the fee payer before they are
// submitted; everything else in the submission family is forwarded as is.
//
// A Dispatcher keeps no per-request state and is safe for concurrent use.
type Dispatcher struct {
	backend Backend
	payer   *sponsor.FeePayer // nil disables sponsorship
	marker  []byte
	limiter *rate.Limiter
}

// NewDispatcher creates a dispatcher submitting to backend. The fee payer is
// the only holder of the signing key.
func NewDispatcher(backend Backend, payer *sponsor.FeePayer, cfg *Config) (*Dispatcher, error) {
	marker := cfg.marker()
	if len(marker) != types.SponsorMarkerLength {
		return nil, fmt.Errorf("invalid sponsorship marker length %d, want %d", len(marker), types.SponsorMarkerLength)
	}
	d := &Dispatcher{
		backend: backend,
		payer:   payer,
		marker:  marker,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return d, nil
}

// ServeHTTP serves a single JSON-RPC call per POST request.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestContentLength))
	var (
		status int
		resp   *jsonrpcMessage
	)
	if err != nil {
		status, resp = d.reject(nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	} else {
		status, resp = d.dispatch(r.Context(), body)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Debug("Failed to write relay response", "err", err)
	}
}

func (d *Dispatcher) reject(msg *jsonrpcMessage, err error) (int, *jsonrpcMessage) {
	requestMeter.Mark(1)
	failureMeter.Mark(1)
	log.Debug("Rejected relay request", "kind", errorKind(err), "err", err)
	return httpStatus(err), msg.errorResponse(err)
}

// dispatch runs one request through parse, route, inspect and submit. It
// returns the HTTP status together with the response message.
func (d *Dispatcher) dispatch(ctx context.Context, body []byte) (int, *jsonrpcMessage) {
	msg, err := parseRequest(body)
	if err != nil {
		return d.reject(msg, err)
	}
	method, ok := ParseMethod(msg.Method)
	if !ok {
		return d.reject(msg, &UnsupportedMethodError{Method: msg.Method})
	}
	raw, err := parseRawTransaction(msg.Params)
	if err != nil {
		return d.reject(msg, err)
	}
	requestMeter.Mark(1)

	var (
		start     = time.Now()
		marker    = types.HasMarker(raw, d.marker)
		logger    = log.New("reqid", uuid.New(), "method", method, "marker", marker)
		result    json.RawMessage
		submitErr error
	)
	if marker {
		result, submitErr = d.sponsor(ctx, logger, method, raw)
	} else {
		result, submitErr = d.forward(ctx, method, raw)
	}
	elapsed := time.Since(start)
	updateServeTimeHistogram(method.String(), marker, submitErr == nil, elapsed)

	if submitErr != nil {
		failureMeter.Mark(1)
		kind := errorKind(submitErr)
		switch kind {
		case "signature_integrity", "internal":
			logger.Error("Relay request failed", "kind", kind, "elapsed", common.PrettyDuration(elapsed), "err", submitErr)
		default:
			logger.Warn("Relay request failed", "kind", kind, "elapsed", common.PrettyDuration(elapsed), "err", submitErr)
		}
		return httpStatus(submitErr), msg.errorResponse(submitErr)
	}
	logger.Debug("Relay request served", "elapsed", common.PrettyDuration(elapsed))
	return http.StatusOK, msg.response(result)
}

// forward submits raw unchanged.
func (d *Dispatcher) forward(ctx context.Context, method Method, raw []byte) (json.RawMessage, error) {
	result, err := d.submit(ctx, method, raw)
	if err == nil {
		forwardedMeter.Mark(1)
	}
	return result, err
}

// sponsor strips the suffix, co-signs the envelope as fee payer and submits
// the result. Nothing is retried: a failed submission is reported to the
// caller, who owns the nonce.
func (d *Dispatcher) sponsor(ctx context.Context, logger log.Logger, method Method, raw []byte) (json.RawMessage, error) {
	if d.payer == nil {
		return nil, ErrNoFeePayer
	}
	if d.limiter != nil && !d.limiter.Allow() {
		return nil, ErrRateLimited
	}
	sender, err := types.SponsorSender(raw)
	if err != nil {
		return nil, err
	}
	envelope, err := types.StripSponsorSuffix(raw)
	if err != nil {
		return nil, err
	}
	tx, err := types.DecodeAATx(envelope)
	if err != nil {
		return nil, err
	}
	sponsored, err := d.payer.Sponsor(tx, sender)
	if err != nil {
		return nil, err
	}
	enc, err := sponsored.MarshalBinary()
	if err != nil {
		return nil, err
	}
	hash := crypto.Keccak256Hash(enc)
	logger.Debug("Sponsored transaction", "sender", sender, "sigtype", tx.Signature.Type, "feetoken", *sponsored.FeeToken, "hash", hash)

	result, err := d.submit(ctx, method, enc)
	if err != nil {
		return nil, err
	}
	sponsoredMeter.Mark(1)
	logger.Info("Submitted sponsored transaction", "sender", sender, "hash", hash, "feepayer", d.payer.Address())
	return result, nil
}

// 以相同方法名提交给链节点，并记录耗时。
func (d *Dispatcher) submit(ctx context.Context, method Method, raw []byte) (json.RawMessage, error) {
	defer chainTimer.UpdateSince(time.Now())
	return d.backend.SendRawTransaction(ctx, method, raw)
}

// parseRequest decodes a single JSON-RPC call. The returned message is
// non-nil whenever the body was valid JSON, so that errors can echo its id.
func parseRequest(body []byte) (*jsonrpcMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		return nil, fmt.Errorf("%w: batch requests are not supported", ErrInvalidRequest)
	}
	var msg jsonrpcMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if msg.Method == "" {
		return &msg, fmt.Errorf("%w: missing method", ErrInvalidRequest)
	}
	return &msg, nil
}

// parseRawTransaction extracts the raw transaction from [rawTxHex, ...].
//
// 仅取第一个参数，其余参数忽略。
func parseRawTransaction(params json.RawMessage) ([]byte, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil || len(args) == 0 {
		return nil, fmt.Errorf("%w: expected raw transaction parameter", ErrInvalidRequest)
	}
	var raw hexutil.Bytes
	if err := json.Unmarshal(args[0], &raw); err != nil {
		return nil, fmt.Errorf("%w: raw transaction: %v", ErrInvalidRequest, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty raw transaction", ErrInvalidRequest)
	}
	return raw, nil
}
