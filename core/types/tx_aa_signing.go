// Copyright 2025 The go-ethereum Authors
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

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// The two signatures of an AA transaction cover almost the same fields but live
// in different domains:
//
//	sender:    keccak256(0x76 || rlp([fields..., feeToken, feePayerSlot]))
//	fee payer: keccak256(0x78 || rlp([fields..., feeToken, sender]))
//
// 两个签名覆盖几乎相同的字段，但前缀魔数不同，签名无法跨域重放。

// signingFields lists the fields shared by both signing payloads.
func (tx *AATx) signingFields() []interface{} {
	return []interface{}{
		tx.ChainID,
		&tx.MaxPriorityFeePerGas,
		&tx.MaxFeePerGas,
		tx.Gas,
		tx.Calls,
		tx.AccessList,
		&tx.NonceKey,
		tx.Nonce,
		tx.ValidBefore,
		tx.ValidAfter,
		tx.FeeToken,
	}
}

// SigHash returns the payload the sender signs. When the envelope expects or
// carries a fee payer, the fee payer slot is committed as 0x00 so that the
// sender's signature stays valid once the sponsor's signature is added.
//
// The fee token is committed as present in the envelope. Whether the chain
// expects an empty fee token here when a fee payer is involved is an open
// question; see DESIGN.md.
func (tx *AATx) SigHash() common.Hash {
	slot := rlp.RawValue(rlp.EmptyString)
	if tx.FeePayerSignature != nil || tx.AwaitingFeePayer {
		slot = feePayerPlaceholder
	}
	return prefixedRlpHash(AATxType, append(tx.signingFields(), slot))
}

// FeePayerSigHash returns the payload the fee payer signs in the default
// fee payer domain.
func (tx *AATx) FeePayerSigHash(sender common.Address) common.Hash {
	return tx.FeePayerSigHashWithMagic(FeePayerMagic, sender)
}

// FeePayerSigHashWithMagic returns the fee payer payload under the given domain
// prefix. The sender address takes the place of the fee payer slot, binding the
// sponsorship to one account.
func (tx *AATx) FeePayerSigHashWithMagic(magic byte, sender common.Address) common.Hash {
	return prefixedRlpHash(magic, append(tx.signingFields(), sender))
}
