// Copyright 2014 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for the sponsor command.
package utils

import (
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strings"

	"github.com/acmeusd/sponsor/internal/flags"
	"github.com/acmeusd/sponsor/relay"
	"github.com/acmeusd/sponsor/sponsor"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/urfave/cli/v2"
)

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

var (
	// Relay server settings
	HTTPListenAddrFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP-RPC server listening interface",
		Value:    relay.DefaultHTTPHost,
		Category: flags.RelayCategory,
	}
	HTTPPortFlag = &cli.IntFlag{
		Name:     "http.port",
		Usage:    "HTTP-RPC server listening port",
		Value:    relay.DefaultHTTPPort,
		Category: flags.RelayCategory,
	}
	HTTPCORSDomainFlag = &cli.StringFlag{
		Name:     "http.corsdomain",
		Usage:    "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
		Category: flags.RelayCategory,
	}
	HTTPTimeoutFlag = &cli.DurationFlag{
		Name:     "http.timeout",
		Usage:    "Write timeout of relay responses, must exceed --rpc.synctimeout",
		Value:    relay.DefaultConfig.HTTPTimeout,
		Category: flags.RelayCategory,
	}

	// Chain endpoint settings
	RPCURLFlag = &cli.StringFlag{
		Name:     "rpc.url",
		Usage:    "Chain JSON-RPC endpoint, user:password@ credentials are sent as Basic auth",
		Value:    relay.DefaultRPCURL,
		EnvVars:  []string{"TEMPO_RPC_URL"},
		Category: flags.ChainCategory,
	}
	RPCJWTSecretFlag = &flags.PathFlag{
		Name:     "rpc.jwtsecret",
		Usage:    "Path to a hex encoded JWT secret for authenticated chain endpoints",
		Category: flags.ChainCategory,
	}
	RPCTimeoutFlag = &cli.DurationFlag{
		Name:     "rpc.timeout",
		Usage:    "Timeout of eth_sendRawTransaction calls to the chain",
		Value:    relay.DefaultConfig.RPCTimeout,
		Category: flags.ChainCategory,
	}
	RPCSyncTimeoutFlag = &cli.DurationFlag{
		Name:     "rpc.synctimeout",
		Usage:    "Timeout of eth_sendRawTransactionSync calls to the chain",
		Value:    relay.DefaultConfig.SyncTimeout,
		Category: flags.ChainCategory,
	}

	// Sponsorship policy
	FeeTokenFlag = &cli.StringFlag{
		Name:     "feetoken",
		Usage:    "Fee token substituted into transactions that leave it empty",
		Value:    sponsor.DefaultFeeToken.Hex(),
		EnvVars:  []string{"ALPHA_USD_ADDRESS"},
		Category: flags.SponsorCategory,
	}
	AllowedFeeTokensFlag = &cli.StringFlag{
		Name:     "feetoken.allow",
		Usage:    "Comma separated list of fee tokens the fee payer accepts (default = any)",
		Category: flags.SponsorCategory,
	}
	ChainIDFlag = &cli.Uint64Flag{
		Name:     "chainid",
		Usage:    "Only sponsor transactions for this chain id (0 = any)",
		Category: flags.SponsorCategory,
	}
	FeePayerMagicFlag = &cli.UintFlag{
		Name:     "feepayer.magic",
		Usage:    "Domain byte of the fee payer signing payload",
		Value:    uint(sponsor.DefaultConfig.FeePayerMagic),
		Category: flags.SponsorCategory,
	}
	MarkerFlag = &cli.StringFlag{
		Name:     "marker",
		Usage:    "Hex encoded 6 byte suffix requesting sponsorship",
		Value:    hexutil.Encode(relay.DefaultConfig.Marker),
		Category: flags.SponsorCategory,
	}
	RateLimitFlag = &cli.Float64Flag{
		Name:     "ratelimit",
		Usage:    "Maximum sponsored transactions per second (0 = unlimited)",
		Category: flags.SponsorCategory,
	}
	RateBurstFlag = &cli.IntFlag{
		Name:     "ratelimit.burst",
		Usage:    "Burst size of the sponsorship rate limit",
		Value:    1,
		Category: flags.SponsorCategory,
	}

	// Fee payer account
	FeePayerKeyFlag = &cli.StringFlag{
		Name:     "feepayer.key",
		Usage:    "Hex encoded fee payer private key, prefer the environment variable",
		EnvVars:  []string{"BACKEND_PRIVATE_KEY"},
		Category: flags.AccountCategory,
	}
	KeyFileFlag = &flags.PathFlag{
		Name:     "feepayer.keyfile",
		Usage:    "Encrypted keystore file holding the fee payer key",
		Category: flags.AccountCategory,
	}
	PasswordFileFlag = &flags.PathFlag{
		Name:     "feepayer.password",
		Usage:    "Password file to decrypt the keystore file",
		Category: flags.AccountCategory,
	}

	// Metrics
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}
	MetricsHTTPFlag = &cli.StringFlag{
		Name:     "metrics.addr",
		Usage:    `Enable stand-alone metrics HTTP server listening interface.`,
		Category: flags.MetricsCategory,
	}
	MetricsPortFlag = &cli.IntFlag{
		Name:     "metrics.port",
		Usage:    `Metrics HTTP server listening port.`,
		Value:    6060,
		Category: flags.MetricsCategory,
	}
)

var (
	RelayFlags = []cli.Flag{
		HTTPListenAddrFlag,
		HTTPPortFlag,
		HTTPCORSDomainFlag,
		HTTPTimeoutFlag,
		RPCURLFlag,
		RPCJWTSecretFlag,
		RPCTimeoutFlag,
		RPCSyncTimeoutFlag,
	}
	SponsorFlags = []cli.Flag{
		FeeTokenFlag,
		AllowedFeeTokensFlag,
		ChainIDFlag,
		FeePayerMagicFlag,
		MarkerFlag,
		RateLimitFlag,
		RateBurstFlag,
		FeePayerKeyFlag,
		KeyFileFlag,
		PasswordFileFlag,
	}
	MetricsFlags = []cli.Flag{
		MetricsEnabledFlag,
		MetricsHTTPFlag,
		MetricsPortFlag,
	}
)

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// SetRelayConfig applies relay and chain flags to cfg.
//
// 命令行参数覆盖配置文件中的值。
func SetRelayConfig(ctx *cli.Context, cfg *relay.Config) error {
	if ctx.IsSet(HTTPListenAddrFlag.Name) {
		cfg.HTTPHost = ctx.String(HTTPListenAddrFlag.Name)
	}
	if ctx.IsSet(HTTPPortFlag.Name) {
		cfg.HTTPPort = ctx.Int(HTTPPortFlag.Name)
	}
	if ctx.IsSet(HTTPCORSDomainFlag.Name) {
		cfg.HTTPCors = SplitAndTrim(ctx.String(HTTPCORSDomainFlag.Name))
	}
	if ctx.IsSet(HTTPTimeoutFlag.Name) {
		cfg.HTTPTimeout = ctx.Duration(HTTPTimeoutFlag.Name)
	}
	if ctx.IsSet(RPCURLFlag.Name) {
		cfg.RPCURL = ctx.String(RPCURLFlag.Name)
	}
	if ctx.IsSet(RPCJWTSecretFlag.Name) {
		cfg.JWTSecret = ctx.String(RPCJWTSecretFlag.Name)
	}
	if ctx.IsSet(RPCTimeoutFlag.Name) {
		cfg.RPCTimeout = ctx.Duration(RPCTimeoutFlag.Name)
	}
	if ctx.IsSet(RPCSyncTimeoutFlag.Name) {
		cfg.SyncTimeout = ctx.Duration(RPCSyncTimeoutFlag.Name)
	}
	if ctx.IsSet(MarkerFlag.Name) {
		marker, err := hexutil.Decode(ctx.String(MarkerFlag.Name))
		if err != nil {
			return fmt.Errorf("invalid --%s: %v", MarkerFlag.Name, err)
		}
		cfg.Marker = marker
	}
	if ctx.IsSet(RateLimitFlag.Name) {
		cfg.RateLimit = ctx.Float64(RateLimitFlag.Name)
	}
	if ctx.IsSet(RateBurstFlag.Name) {
		cfg.RateBurst = ctx.Int(RateBurstFlag.Name)
	}
	if cfg.HTTPTimeout > 0 && cfg.HTTPTimeout <= cfg.SyncTimeout {
		log.Warn("HTTP write timeout shorter than sync submission timeout", "http", cfg.HTTPTimeout, "sync", cfg.SyncTimeout)
	}
	return nil
}

// SetSponsorConfig applies the sponsorship policy flags to cfg.
//
// 私钥本身不会写入配置，只记录密钥文件路径。
func SetSponsorConfig(ctx *cli.Context, cfg *sponsor.Config) error {
	if ctx.IsSet(FeeTokenFlag.Name) {
		token, err := flags.ParseAddress(FeeTokenFlag.Name, ctx.String(FeeTokenFlag.Name))
		if err != nil {
			return err
		}
		cfg.FeeToken = &token
	}
	if ctx.IsSet(AllowedFeeTokensFlag.Name) {
		tokens, err := flags.ParseAddresses(AllowedFeeTokensFlag.Name, ctx.String(AllowedFeeTokensFlag.Name))
		if err != nil {
			return err
		}
		cfg.AllowedFeeTokens = tokens
	}
	if ctx.IsSet(ChainIDFlag.Name) {
		cfg.ChainID = ctx.Uint64(ChainIDFlag.Name)
	}
	if ctx.IsSet(FeePayerMagicFlag.Name) {
		magic := ctx.Uint(FeePayerMagicFlag.Name)
		if magic > 0xff {
			return fmt.Errorf("invalid --%s: %d does not fit a byte", FeePayerMagicFlag.Name, magic)
		}
		cfg.FeePayerMagic = byte(magic)
	}
	if ctx.IsSet(KeyFileFlag.Name) {
		cfg.KeyFile = ctx.String(KeyFileFlag.Name)
	}
	if ctx.IsSet(PasswordFileFlag.Name) {
		cfg.PasswordFile = ctx.String(PasswordFileFlag.Name)
	}
	return nil
}

// SetupMetrics enables metrics collection and starts the stand-alone metrics
// server when requested.
//
// 启用指标并在指定地址暴露 /debug/metrics。
func SetupMetrics(ctx *cli.Context) {
	if !ctx.Bool(MetricsEnabledFlag.Name) && !ctx.IsSet(MetricsHTTPFlag.Name) {
		return
	}
	log.Info("Enabling metrics collection")
	metrics.Enable()

	if ctx.IsSet(MetricsHTTPFlag.Name) {
		address := net.JoinHostPort(ctx.String(MetricsHTTPFlag.Name), fmt.Sprintf("%d", ctx.Int(MetricsPortFlag.Name)))
		log.Info("Enabling stand-alone metrics HTTP endpoint", "address", address)
		exp.Setup(address)
	}
}
