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

package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func runSetup(args ...string) error {
	app := cli.NewApp()
	app.Flags = Flags
	app.Action = Setup
	return app.Run(append([]string{"sponsor"}, args...))
}

func TestSetupLogFile(t *testing.T) {
	defer log.SetDefault(log.NewLogger(log.DiscardHandler()))

	logfile := filepath.Join(t.TempDir(), "logs", "relay.log")
	if err := runSetup("--log.format", "json", "--log.file", logfile, "--verbosity", "4"); err != nil {
		t.Fatal(err)
	}
	log.Debug("Relay request served", "method", "eth_sendRawTransaction")
	Exit()

	data, err := os.ReadFile(logfile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"method":"eth_sendRawTransaction"`) {
		t.Fatalf("log line missing from file: %s", data)
	}
}

func TestSetupInvalid(t *testing.T) {
	defer log.SetDefault(log.NewLogger(log.DiscardHandler()))

	if err := runSetup("--log.format", "xml"); err == nil || !strings.Contains(err.Error(), "unknown log format") {
		t.Fatalf("expected log format error, got %v", err)
	}
	if err := runSetup("--log.vmodule", "relay=x"); err == nil {
		t.Fatal("expected vmodule error")
	}
}
