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

package types

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

type aaCallJSON struct {
	To    *common.Address `json:"to"`
	Value *hexutil.U256   `json:"value"`
	Input hexutil.Bytes   `json:"input"`
}

type aaSignatureJSON struct {
	YParity hexutil.Uint64 `json:"yParity"`
	R       *hexutil.U256  `json:"r"`
	S       *hexutil.U256  `json:"s"`
}

type senderSignatureJSON struct {
	Type string `json:"type"`
	*aaSignatureJSON
	WebAuthn hexutil.Bytes `json:"webAuthn,omitempty"`
}

// aaTxJSON is the JSON representation of AA transactions.
type aaTxJSON struct {
	Type                 hexutil.Uint64       `json:"type"`
	Hash                 common.Hash          `json:"hash"`
	ChainID              hexutil.Uint64       `json:"chainId"`
	MaxPriorityFeePerGas *hexutil.U256        `json:"maxPriorityFeePerGas"`
	MaxFeePerGas         *hexutil.U256        `json:"maxFeePerGas"`
	Gas                  hexutil.Uint64       `json:"gas"`
	Calls                []aaCallJSON         `json:"calls"`
	AccessList           gethtypes.AccessList `json:"accessList"`
	NonceKey             *hexutil.U256        `json:"nonceKey"`
	Nonce                hexutil.Uint64       `json:"nonce"`
	ValidBefore          hexutil.Uint64       `json:"validBefore"`
	ValidAfter           hexutil.Uint64       `json:"validAfter"`
	FeeToken             *common.Address      `json:"feeToken"`
	FeePayerSignature    *aaSignatureJSON     `json:"feePayerSignature"`
	AwaitingFeePayer     bool                 `json:"awaitingFeePayer,omitempty"`
	Signature            *senderSignatureJSON `json:"signature"`
}

func (sig *AASignature) toJSON() *aaSignatureJSON {
	r, s := sig.R, sig.S
	return &aaSignatureJSON{
		YParity: hexutil.Uint64(sig.YParity),
		R:       (*hexutil.U256)(&r),
		S:       (*hexutil.U256)(&s),
	}
}

// MarshalJSON marshals as JSON with a hash field.
func (tx *AATx) MarshalJSON() ([]byte, error) {
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	cpy := tx.Copy()
	enc := aaTxJSON{
		Type:                 AATxType,
		Hash:                 hash,
		ChainID:              hexutil.Uint64(cpy.ChainID),
		MaxPriorityFeePerGas: (*hexutil.U256)(&cpy.MaxPriorityFeePerGas),
		MaxFeePerGas:         (*hexutil.U256)(&cpy.MaxFeePerGas),
		Gas:                  hexutil.Uint64(cpy.Gas),
		Calls:                make([]aaCallJSON, len(cpy.Calls)),
		AccessList:           cpy.AccessList,
		NonceKey:             (*hexutil.U256)(&cpy.NonceKey),
		Nonce:                hexutil.Uint64(cpy.Nonce),
		ValidBefore:          hexutil.Uint64(cpy.ValidBefore),
		ValidAfter:           hexutil.Uint64(cpy.ValidAfter),
		FeeToken:             cpy.FeeToken,
		AwaitingFeePayer:     cpy.AwaitingFeePayer,
	}
	for i := range cpy.Calls {
		enc.Calls[i] = aaCallJSON{
			To:    cpy.Calls[i].To,
			Value: (*hexutil.U256)(&cpy.Calls[i].Value),
			Input: cpy.Calls[i].Input,
		}
	}
	if cpy.FeePayerSignature != nil {
		enc.FeePayerSignature = cpy.FeePayerSignature.toJSON()
	}
	if sig := cpy.Signature; sig != nil {
		enc.Signature = &senderSignatureJSON{Type: sig.Type.String()}
		switch sig.Type {
		case SignatureSecp256k1:
			enc.Signature.aaSignatureJSON = sig.Secp256k1.toJSON()
		case SignatureWebAuthn:
			enc.Signature.WebAuthn = sig.WebAuthn
		}
	}
	return json.Marshal(&enc)
}
