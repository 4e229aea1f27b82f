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
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
)

var errBackendClosed = errors.New("backend closed")

// Backend is the chain the relay submits transactions to.
//
// 抽象出链 RPC，便于在测试中替换。
type Backend interface {
	// SendRawTransaction submits raw under the given method and returns the
	// chain's result unchanged.
	SendRawTransaction(ctx context.Context, method Method, raw []byte) (json.RawMessage, error)

	// BlockNumber returns the chain head, used by health checks.
	BlockNumber(ctx context.Context) (uint64, error)
}

// RPCBackend is a Backend talking JSON-RPC to a chain endpoint. The client is
// dialled on first use and shared by all requests afterwards.
type RPCBackend struct {
	cfg *Config

	mu     sync.Mutex
	client *rpc.Client // set only after a successful dial
	cfgErr error       // configuration errors never heal, so they stick
	closed bool
}

// NewRPCBackend creates a backend for the endpoint in cfg. No connection is
// made until the first call.
func NewRPCBackend(cfg *Config) *RPCBackend {
	return &RPCBackend{cfg: cfg}
}

// dial returns the shared client, connecting if there is none yet. A failed
// connection attempt is not remembered, the next call dials again.
func (b *RPCBackend) dial() (*rpc.Client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.closed:
		return nil, errBackendClosed
	case b.client != nil:
		return b.client, nil
	case b.cfgErr != nil:
		return nil, b.cfgErr
	}
	endpoint, auth := parseRPCURL(b.cfg.RPCURL)
	var opts []rpc.ClientOption
	if auth != "" {
		opts = append(opts, rpc.WithHeader("Authorization", "Basic "+auth))
	}
	if b.cfg.JWTSecret != "" {
		secret, err := readJWTSecret(b.cfg.JWTSecret)
		if err != nil {
			b.cfgErr = err
			return nil, err
		}
		opts = append(opts, rpc.WithHTTPAuth(node.NewJWTAuth(secret)))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := rpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		log.Debug("Chain RPC dial failed", "url", endpoint, "err", err)
		return nil, err
	}
	b.client = client
	log.Info("Chain RPC client created", "url", endpoint, "basicauth", auth != "", "jwt", b.cfg.JWTSecret != "")
	return client, nil
}

func (b *RPCBackend) SendRawTransaction(ctx context.Context, method Method, raw []byte) (json.RawMessage, error) {
	client, err := b.dial()
	if err != nil {
		return nil, fmt.Errorf("chain rpc unavailable: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, b.cfg.timeout(method))
	defer cancel()

	var result json.RawMessage
	err = client.CallContext(ctx, &result, method.String(), hexutil.Bytes(raw))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, ErrChainTimeout
		}
		return nil, chainError(err)
	}
	return result, nil
}

func (b *RPCBackend) BlockNumber(ctx context.Context) (uint64, error) {
	client, err := b.dial()
	if err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, b.cfg.timeout(SendRawTransaction))
	defer cancel()

	var head hexutil.Uint64
	if err := client.CallContext(ctx, &head, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(head), nil
}

// Close shuts down the client if it was ever dialled. Calls after Close fail.
func (b *RPCBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// parseRPCURL splits user:password credentials off a chain URL. It returns
// the URL to dial and the base64 Basic auth token, empty when the URL carries
// no complete credentials.
//
// 从 URL 中剥离 user:password，转换为 Basic 认证头。
func parseRPCURL(raw string) (endpoint string, auth string) {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw, ""
	}
	user := u.User.Username()
	pass, ok := u.User.Password()
	if user == "" || !ok || pass == "" {
		return raw, ""
	}
	auth = base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
	return u.Scheme + "://" + u.Host + u.EscapedPath(), auth
}

// 读取十六进制编码的 32 字节 JWT 密钥。
func readJWTSecret(path string) ([32]byte, error) {
	var secret [32]byte
	data, err := os.ReadFile(path)
	if err != nil {
		return secret, fmt.Errorf("failed to read JWT secret: %w", err)
	}
	jwt := common.FromHex(strings.TrimSpace(string(data)))
	if len(jwt) != 32 {
		return secret, errors.New("invalid JWT secret, need 32 hex encoded bytes")
	}
	copy(secret[:], jwt)
	return secret, nil
}
