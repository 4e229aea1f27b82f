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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/acmeusd/sponsor/cmd/utils"
	"github.com/acmeusd/sponsor/core/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

var decodeCommand = &cli.Command{
	Action:    decodeTx,
	Name:      "decode",
	Usage:     "Decode a raw AA transaction",
	ArgsUsage: "<hex>",
	Flags:     []cli.Flag{utils.MarkerFlag},
	Description: `
The decode command prints the fields of a raw AA transaction as JSON. If the
input ends with the sponsorship marker, the requesting sender is reported and
the suffix is removed before decoding.`,
}

type decodedTx struct {
	Sponsorship bool            `json:"sponsorship"`
	Sender      *common.Address `json:"sender,omitempty"`
	Transaction *types.AATx     `json:"transaction"`
}

func decodeTx(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one raw transaction argument")
	}
	input := strings.TrimSpace(ctx.Args().First())
	if !strings.HasPrefix(input, "0x") {
		input = "0x" + input
	}
	raw, err := hexutil.Decode(input)
	if err != nil {
		return fmt.Errorf("invalid hex input: %v", err)
	}
	marker, err := hexutil.Decode(ctx.String(utils.MarkerFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %v", utils.MarkerFlag.Name, err)
	}
	out, err := decodeRaw(raw, marker)
	if err != nil {
		return err
	}
	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(enc))
	return nil
}

// 检测赞助后缀，剥离后再解码交易。
func decodeRaw(raw, marker []byte) (*decodedTx, error) {
	var out decodedTx
	if types.HasMarker(raw, marker) {
		sender, err := types.SponsorSender(raw)
		if err != nil {
			return nil, err
		}
		if raw, err = types.StripSponsorSuffix(raw); err != nil {
			return nil, err
		}
		out.Sponsorship, out.Sender = true, &sender
	}
	tx, err := types.DecodeAATx(raw)
	if err != nil {
		return nil, err
	}
	out.Transaction = tx
	return &out, nil
}
