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

package sponsor

import (
	"github.com/ethereum/go-ethereum/common"
)

// DefaultFeeToken is the stablecoin used when an envelope leaves its fee token empty.
var DefaultFeeToken = common.HexToAddress("0x20c0000000000000000000000000000000000001") // 默认手续费代币。

// Config is the sponsorship policy of a fee payer.
type Config struct {
	// FeeToken is substituted into envelopes that carry no fee token.
	FeeToken *common.Address `toml:",omitempty"`

	// AllowedFeeTokens restricts the tokens the fee payer agrees to pay in.
	// An empty list accepts any token.
	AllowedFeeTokens []common.Address `toml:",omitempty"`

	// ChainID, if non-zero, rejects envelopes for other chains.
	ChainID uint64 `toml:",omitempty"`

	// FeePayerMagic is the domain byte of the fee payer signing payload.
	FeePayerMagic byte

	// Key sources. A hex key from the environment takes precedence.
	KeyFile      string `toml:",omitempty"`
	PasswordFile string `toml:",omitempty"`
}

// DefaultConfig contains the default sponsorship policy.
var DefaultConfig = Config{
	FeeToken:      &DefaultFeeToken,
	FeePayerMagic: 0x78,
}
