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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

const (
	// AATxType is the typed-envelope prefix of account abstraction transactions.
	// AATxType 是账户抽象交易的类型前缀，同时也是发送方签名域的魔数。
	AATxType = 0x76

	// FeePayerMagic is the default prefix of the fee payer signing payload. It must
	// never equal AATxType, otherwise a fee payer signature would be valid in the
	// sender's domain.
	// FeePayerMagic 是代付方签名载荷的默认前缀，与发送方签名域（0x76）区分。
	FeePayerMagic = 0x78
)

var (
	ErrMalformedEnvelope  = errors.New("malformed AA envelope")
	ErrInvalidFeePayerSig = errors.New("invalid fee payer signature")
)

// Call is a single call executed by an AA transaction. A nil To creates a contract.
type Call struct {
	To    *common.Address `rlp:"nil"`
	Value uint256.Int
	Input []byte
}

// AASignature is a secp256k1 signature in (yParity, r, s) form. The fee payer
// always signs with this scheme.
type AASignature struct {
	YParity uint8
	R       uint256.Int
	S       uint256.Int
}

// Bytes returns the signature in the 65 byte [R || S || V] format used by
// crypto.Ecrecover.
func (sig *AASignature) Bytes() []byte {
	out := make([]byte, crypto.SignatureLength)
	sig.R.WriteToSlice(out[:32])
	sig.S.WriteToSlice(out[32:64])
	out[crypto.RecoveryIDOffset] = sig.YParity
	return out
}

// AASignatureFromBytes converts a 65 byte [R || S || V] signature.
func AASignatureFromBytes(b []byte) (*AASignature, error) {
	if len(b) != crypto.SignatureLength {
		return nil, fmt.Errorf("wrong signature length %d, want %d", len(b), crypto.SignatureLength)
	}
	if b[crypto.RecoveryIDOffset] > 1 {
		return nil, fmt.Errorf("invalid y parity %d", b[crypto.RecoveryIDOffset])
	}
	sig := &AASignature{YParity: b[crypto.RecoveryIDOffset]}
	sig.R.SetBytes(b[:32])
	sig.S.SetBytes(b[32:64])
	return sig, nil
}

// AATx is the account abstraction transaction envelope.
//
// The sender's signature is produced by the user's wallet and is never touched
// by the relay. The fee payer signature is the relay's; it is added after the
// fact and lives in a separate signing domain.
// 发送方签名由用户钱包产生，中继永远不会修改它；代付方签名位于独立的签名域。
type AATx struct {
	ChainID              uint64
	MaxPriorityFeePerGas uint256.Int // a.k.a. GasTipCap
	MaxFeePerGas         uint256.Int // a.k.a. GasFeeCap
	Gas                  uint64
	Calls                []Call
	AccessList           gethtypes.AccessList
	NonceKey             uint256.Int
	Nonce                uint64
	ValidBefore          uint64
	ValidAfter           uint64
	FeeToken             *common.Address // nil when the sender left it unset

	// FeePayerSignature is nil until a fee payer co-signs. AwaitingFeePayer records
	// the 0x00 placeholder a sender writes when it expects to be sponsored.
	FeePayerSignature *AASignature
	AwaitingFeePayer  bool

	Signature *SenderSignature
}

// aaTxRLP is the list layout of the envelope after the type byte.
type aaTxRLP struct {
	ChainID              uint64
	MaxPriorityFeePerGas uint256.Int
	MaxFeePerGas         uint256.Int
	Gas                  uint64
	Calls                []Call
	AccessList           gethtypes.AccessList
	NonceKey             uint256.Int
	Nonce                uint64
	ValidBefore          uint64
	ValidAfter           uint64
	FeeToken             *common.Address `rlp:"nil"`
	FeePayer             rlp.RawValue
	Signature            []byte `rlp:"optional"`
}

// feePayerPlaceholder is written in place of the fee payer signature by senders
// that expect a sponsor.
var feePayerPlaceholder = rlp.RawValue{0x00}

// Copy returns a deep copy of the envelope.
func (tx *AATx) Copy() *AATx {
	cpy := *tx
	if tx.Calls != nil {
		cpy.Calls = make([]Call, len(tx.Calls))
		for i, c := range tx.Calls {
			cpy.Calls[i] = Call{To: copyAddressPtr(c.To), Value: c.Value, Input: common.CopyBytes(c.Input)}
		}
	}
	if tx.AccessList != nil {
		cpy.AccessList = make(gethtypes.AccessList, len(tx.AccessList))
		for i, tuple := range tx.AccessList {
			cpy.AccessList[i] = gethtypes.AccessTuple{Address: tuple.Address}
			if tuple.StorageKeys != nil {
				cpy.AccessList[i].StorageKeys = append([]common.Hash(nil), tuple.StorageKeys...)
			}
		}
	}
	cpy.FeeToken = copyAddressPtr(tx.FeeToken)
	if tx.FeePayerSignature != nil {
		sig := *tx.FeePayerSignature
		cpy.FeePayerSignature = &sig
	}
	if tx.Signature != nil {
		cpy.Signature = tx.Signature.Copy()
	}
	return &cpy
}

// WithFeePayerSignature returns a copy of the envelope carrying the given fee
// payer signature. A previous fee payer signature is replaced; the sender
// signature and every other field are left as they are.
func (tx *AATx) WithFeePayerSignature(sig AASignature) *AATx {
	cpy := tx.Copy()
	cpy.FeePayerSignature = &sig
	return cpy
}

// MarshalBinary returns the canonical encoding: AATxType || rlp(fields).
func (tx *AATx) MarshalBinary() ([]byte, error) {
	if len(tx.Calls) == 0 {
		return nil, fmt.Errorf("%w: no calls", ErrMalformedEnvelope)
	}
	enc := aaTxRLP{
		ChainID:              tx.ChainID,
		MaxPriorityFeePerGas: tx.MaxPriorityFeePerGas,
		MaxFeePerGas:         tx.MaxFeePerGas,
		Gas:                  tx.Gas,
		Calls:                tx.Calls,
		AccessList:           tx.AccessList,
		NonceKey:             tx.NonceKey,
		Nonce:                tx.Nonce,
		ValidBefore:          tx.ValidBefore,
		ValidAfter:           tx.ValidAfter,
		FeeToken:             tx.FeeToken,
	}
	var err error
	if enc.FeePayer, err = tx.feePayerField(); err != nil {
		return nil, err
	}
	if tx.Signature != nil {
		if enc.Signature, err = tx.Signature.MarshalBinary(); err != nil {
			return nil, err
		}
	}
	return prefixedRlpEncode(AATxType, &enc)
}

// UnmarshalBinary decodes the canonical encoding. It fails with
// ErrMalformedEnvelope on any unknown type, trailing data or invalid field.
func (tx *AATx) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("%w: empty input", ErrMalformedEnvelope)
	}
	if b[0] != AATxType {
		return fmt.Errorf("%w: unexpected type 0x%02x", ErrMalformedEnvelope, b[0])
	}
	var dec aaTxRLP
	if err := rlp.DecodeBytes(b[1:], &dec); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(dec.Calls) == 0 {
		return fmt.Errorf("%w: no calls", ErrMalformedEnvelope)
	}
	feePayerSig, awaiting, err := decodeFeePayerField(dec.FeePayer)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	var senderSig *SenderSignature
	if len(dec.Signature) > 0 {
		senderSig = new(SenderSignature)
		if err := senderSig.UnmarshalBinary(dec.Signature); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
	}
	// The rlp decoder yields empty, non-nil slices. Fold them to nil so that a
	// decoded envelope compares equal to the one that was encoded.
	for i := range dec.Calls {
		if len(dec.Calls[i].Input) == 0 {
			dec.Calls[i].Input = nil
		}
	}
	if len(dec.AccessList) == 0 {
		dec.AccessList = nil
	}
	for i := range dec.AccessList {
		if len(dec.AccessList[i].StorageKeys) == 0 {
			dec.AccessList[i].StorageKeys = nil
		}
	}
	*tx = AATx{
		ChainID:              dec.ChainID,
		MaxPriorityFeePerGas: dec.MaxPriorityFeePerGas,
		MaxFeePerGas:         dec.MaxFeePerGas,
		Gas:                  dec.Gas,
		Calls:                dec.Calls,
		AccessList:           dec.AccessList,
		NonceKey:             dec.NonceKey,
		Nonce:                dec.Nonce,
		ValidBefore:          dec.ValidBefore,
		ValidAfter:           dec.ValidAfter,
		FeeToken:             dec.FeeToken,
		FeePayerSignature:    feePayerSig,
		AwaitingFeePayer:     awaiting,
		Signature:            senderSig,
	}
	return nil
}

// DecodeAATx parses a serialized AA envelope.
func DecodeAATx(b []byte) (*AATx, error) {
	tx := new(AATx)
	if err := tx.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return tx, nil
}

// Hash returns the transaction hash, i.e. the keccak256 of the full encoding.
func (tx *AATx) Hash() (common.Hash, error) {
	enc, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

func (tx *AATx) feePayerField() (rlp.RawValue, error) {
	switch {
	case tx.FeePayerSignature != nil:
		if tx.FeePayerSignature.YParity > 1 {
			return nil, fmt.Errorf("%w: y parity %d", ErrInvalidFeePayerSig, tx.FeePayerSignature.YParity)
		}
		return rlp.EncodeToBytes(tx.FeePayerSignature)
	case tx.AwaitingFeePayer:
		return feePayerPlaceholder, nil
	default:
		return rlp.EmptyString, nil
	}
}

// decodeFeePayerField interprets the fee payer slot: an empty string means no
// fee payer, 0x00 means one is expected, a list is the signature itself.
func decodeFeePayerField(raw rlp.RawValue) (*AASignature, bool, error) {
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return nil, false, err
	}
	switch kind {
	case rlp.List:
		var sig AASignature
		if err := rlp.DecodeBytes(raw, &sig); err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidFeePayerSig, err)
		}
		if sig.YParity > 1 {
			return nil, false, fmt.Errorf("%w: y parity %d", ErrInvalidFeePayerSig, sig.YParity)
		}
		return &sig, false, nil
	case rlp.String:
		if len(content) == 0 {
			return nil, false, nil
		}
	case rlp.Byte:
		if content[0] == 0x00 {
			return nil, true, nil
		}
	}
	return nil, false, fmt.Errorf("%w: unexpected value %x", ErrInvalidFeePayerSig, []byte(raw))
}

func copyAddressPtr(a *common.Address) *common.Address {
	if a == nil {
		return nil
	}
	cpy := *a
	return &cpy
}
