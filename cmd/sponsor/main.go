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

// sponsor is the fee sponsorship relay for AA transactions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acmeusd/sponsor/cmd/utils"
	"github.com/acmeusd/sponsor/internal/debug"
	"github.com/acmeusd/sponsor/internal/flags"
	"github.com/acmeusd/sponsor/internal/version"
	"github.com/acmeusd/sponsor/relay"
	"github.com/acmeusd/sponsor/sponsor"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var app = flags.NewApp(version.ClientVersion(), "fee sponsorship relay for AA transactions")

func init() {
	app.Action = runRelay
	app.Commands = []*cli.Command{
		dumpConfigCommand,
		decodeCommand,
	}
	app.Flags = flags.Merge(
		configFlags,
		utils.RelayFlags,
		utils.SponsorFlags,
		utils.MetricsFlags,
		debug.Flags,
	)
	flags.AutoEnvVars(app.Flags, "SPONSOR")

	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		if err := debug.Setup(ctx); err != nil {
			return err
		}
		flags.CheckEnvVars(ctx, app.Flags, "SPONSOR")
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		utils.Fatalf("%v", err)
	}
}

// runRelay is the main entry point into the system if no special subcommand is
// run. It loads the fee payer, starts the relay server and blocks until an
// interrupt is received.
//
// 收到 SIGINT/SIGTERM 后在限定时间内优雅关闭。
func runRelay(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %s", args[0])
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	utils.SetupMetrics(ctx)

	payer, err := makeFeePayer(ctx, &cfg.Sponsor)
	if err != nil {
		return err
	}
	backend := relay.NewRPCBackend(&cfg.Relay)
	defer backend.Close()

	srv, err := relay.NewServer(&cfg.Relay, backend, payer)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start relay: %w", err)
	}

	sigctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigctx)
	g.Go(func() error {
		probe, cancel := context.WithTimeout(gctx, cfg.Relay.RPCTimeout)
		defer cancel()
		head, err := backend.BlockNumber(probe)
		if err != nil {
			log.Warn("Chain RPC not reachable", "err", err)
			return nil
		}
		log.Info("Connected to chain", "head", head)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Got interrupt, shutting down...")
		shutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdown)
	})
	return g.Wait()
}

// makeFeePayer loads the fee payer key. Without a key the relay only forwards.
func makeFeePayer(ctx *cli.Context, cfg *sponsor.Config) (*sponsor.FeePayer, error) {
	key, err := sponsor.LoadKey(ctx.String(utils.FeePayerKeyFlag.Name), cfg.KeyFile, cfg.PasswordFile)
	if errors.Is(err, sponsor.ErrNoKey) {
		log.Warn("No fee payer key configured, sponsorship disabled")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	payer, err := sponsor.New(key, *cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded fee payer", "address", payer.Address(), "feetoken", cfg.FeeToken, "chainid", cfg.ChainID)
	return payer, nil
}
