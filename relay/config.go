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
	"time"

	"github.com/acmeusd/sponsor/core/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	DefaultHTTPHost = "localhost"
	DefaultHTTPPort = 8546
	DefaultRPCURL   = "https://rpc.testnet.tempo.xyz"
)

// Config holds the relay server and chain client settings.
//
// 中继服务配置，可通过 TOML 文件或命令行参数设置。
type Config struct {
	HTTPHost    string
	HTTPPort    int
	HTTPCors    []string `toml:",omitempty"`
	HTTPTimeout time.Duration

	// RPCURL is the chain endpoint. Credentials in the userinfo part are sent
	// as Basic auth and stripped from the URL.
	RPCURL string

	// JWTSecret is the path of a hex encoded 32 byte secret for endpoints
	// requiring JWT auth.
	JWTSecret string `toml:",omitempty"` // JWT 密钥文件路径（32 字节十六进制）。

	// RPCTimeout bounds eth_sendRawTransaction and health probes. SyncTimeout
	// bounds eth_sendRawTransactionSync, which waits for inclusion.
	RPCTimeout  time.Duration
	SyncTimeout time.Duration

	// Marker is the suffix requesting sponsorship.
	Marker hexutil.Bytes

	// RateLimit is the number of sponsorships per second, zero disables it.
	RateLimit float64 `toml:",omitempty"` // 每秒允许的赞助请求数，0 表示不限制。
	RateBurst int     `toml:",omitempty"`
}

// DefaultConfig contains reasonable default settings.
var DefaultConfig = Config{
	HTTPHost:    DefaultHTTPHost,
	HTTPPort:    DefaultHTTPPort,
	HTTPTimeout: 60 * time.Second,
	RPCURL:      DefaultRPCURL,
	RPCTimeout:  10 * time.Second,
	SyncTimeout: 30 * time.Second,
	Marker:      types.DefaultSponsorMarker,
}

// 按方法选择链 RPC 调用的超时时间。
func (c *Config) timeout(m Method) time.Duration {
	if m.waitsForInclusion() {
		if c.SyncTimeout > 0 {
			return c.SyncTimeout
		}
		return DefaultConfig.SyncTimeout
	}
	if c.RPCTimeout > 0 {
		return c.RPCTimeout
	}
	return DefaultConfig.RPCTimeout
}

func (c *Config) marker() []byte {
	if len(c.Marker) == 0 {
		return types.DefaultSponsorMarker
	}
	return c.Marker
}
