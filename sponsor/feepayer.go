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

// Package sponsor implements the fee payer side of AA transaction sponsorship.
//
// A FeePayer co-signs transactions that already carry the sender's signature.
// Its signature lives in the fee payer domain and only commits the backend key
// to paying gas in the transaction's fee token; it carries no authority over
// the sender's funds.
package sponsor

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acmeusd/sponsor/core/types"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrMissingSenderSignature is returned for envelopes without a sender
	// signature. Sponsoring those would let the relay forge sender intent.
	ErrMissingSenderSignature = errors.New("transaction has no sender signature")

	// ErrSelfSponsorship is returned when the sender is the fee payer itself.
	ErrSelfSponsorship = errors.New("fee payer cannot sponsor its own transaction")

	// ErrSignatureIntegrity means the produced signature does not recover to the
	// fee payer. It points at a bug in the payload computation and is not retryable.
	ErrSignatureIntegrity = errors.New("fee payer signature integrity check failed")

	ErrNoFeeToken         = errors.New("no fee token in transaction and no default configured")
	ErrFeeTokenNotAllowed = errors.New("fee token not accepted for sponsorship")
	ErrChainIDMismatch    = errors.New("transaction chain id mismatch")
	ErrInvalidMagic       = errors.New("fee payer magic byte collides with the sender domain")
)

// FeePayer holds the backend key and sponsorship policy. It is immutable after
// construction and safe for concurrent use.
type FeePayer struct {
	key     *ecdsa.PrivateKey
	address common.Address

	feeToken *common.Address
	allowed  mapset.Set[common.Address]
	chainID  uint64
	magic    byte
}

// New creates a fee payer from the given key and policy.
func New(key *ecdsa.PrivateKey, cfg Config) (*FeePayer, error) {
	if key == nil {
		return nil, ErrNoKey
	}
	magic := cfg.FeePayerMagic
	if magic == 0 {
		magic = types.FeePayerMagic
	}
	if magic == types.AATxType {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidMagic, magic)
	}
	f := &FeePayer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: cfg.ChainID,
		magic:   magic,
		allowed: mapset.NewThreadUnsafeSet[common.Address](cfg.AllowedFeeTokens...),
	}
	if cfg.FeeToken != nil {
		token := *cfg.FeeToken
		f.feeToken = &token
		if f.allowed.Cardinality() > 0 && !f.allowed.Contains(token) {
			return nil, fmt.Errorf("%w: default %v", ErrFeeTokenNotAllowed, token)
		}
	}
	return f, nil
}

// Address returns the fee payer account.
func (f *FeePayer) Address() common.Address {
	return f.address
}

// String implements fmt.Stringer. Only the address is ever printed.
func (f *FeePayer) String() string {
	return fmt.Sprintf("FeePayer(%v)", f.address)
}

// LogValue implements slog.LogValuer so that logging a FeePayer never touches the key.
func (f *FeePayer) LogValue() slog.Value {
	return slog.StringValue(f.address.Hex())
}

// Normalize checks the sponsorship policy and returns a copy of tx with the
// fee token filled in from the default when the sender left it empty.
func (f *FeePayer) Normalize(tx *types.AATx) (*types.AATx, error) {
	if f.chainID != 0 && tx.ChainID != f.chainID {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrChainIDMismatch, tx.ChainID, f.chainID)
	}
	norm := tx.Copy()
	if norm.FeeToken == nil {
		if f.feeToken == nil {
			return nil, ErrNoFeeToken
		}
		token := *f.feeToken
		norm.FeeToken = &token
	}
	if f.allowed.Cardinality() > 0 && !f.allowed.Contains(*norm.FeeToken) {
		return nil, fmt.Errorf("%w: %v", ErrFeeTokenNotAllowed, *norm.FeeToken)
	}
	return norm, nil
}

// Sign computes the fee payer signature for tx on behalf of sender. The
// envelope is normalized first, so the signature commits to the effective fee
// token; callers composing the result must use Sponsor or the normalized copy.
func (f *FeePayer) Sign(tx *types.AATx, sender common.Address) (types.AASignature, error) {
	if tx.Signature == nil {
		return types.AASignature{}, ErrMissingSenderSignature
	}
	norm, err := f.Normalize(tx)
	if err != nil {
		return types.AASignature{}, err
	}
	return f.sign(norm, sender)
}

// Sponsor normalizes tx, signs it and returns the envelope carrying both the
// untouched sender signature and the fee payer signature.
// 未经发送者签名的交易在任何策略检查之前即被拒绝。
func (f *FeePayer) Sponsor(tx *types.AATx, sender common.Address) (*types.AATx, error) {
	if tx.Signature == nil {
		return nil, ErrMissingSenderSignature
	}
	norm, err := f.Normalize(tx)
	if err != nil {
		return nil, err
	}
	sig, err := f.sign(norm, sender)
	if err != nil {
		return nil, err
	}
	return norm.WithFeePayerSignature(sig), nil
}

func (f *FeePayer) sign(tx *types.AATx, sender common.Address) (types.AASignature, error) {
	if tx.Signature == nil {
		return types.AASignature{}, ErrMissingSenderSignature
	}
	if err := f.checkNotSelf(tx, sender); err != nil {
		return types.AASignature{}, err
	}
	hash := tx.FeePayerSigHashWithMagic(f.magic, sender)
	raw, err := crypto.Sign(hash[:], f.key)
	if err != nil {
		return types.AASignature{}, err
	}
	sig, err := types.AASignatureFromBytes(raw)
	if err != nil {
		return types.AASignature{}, fmt.Errorf("%w: %v", ErrSignatureIntegrity, err)
	}
	// Recover from the composed (yParity, r, s) form rather than from raw, so the
	// check also covers the conversion.
	// 从组合后的 (yParity, r, s) 恢复地址，同时校验转换过程。
	if !crypto.ValidateSignatureValues(sig.YParity, sig.R.ToBig(), sig.S.ToBig(), true) {
		return types.AASignature{}, fmt.Errorf("%w: invalid signature values", ErrSignatureIntegrity)
	}
	pub, err := crypto.SigToPub(hash[:], sig.Bytes())
	if err != nil {
		return types.AASignature{}, fmt.Errorf("%w: %v", ErrSignatureIntegrity, err)
	}
	if recovered := crypto.PubkeyToAddress(*pub); recovered != f.address {
		return types.AASignature{}, fmt.Errorf("%w: recovered %v", ErrSignatureIntegrity, recovered)
	}
	return *sig, nil
}

// checkNotSelf rejects transactions sent by the fee payer account, either by
// the declared sender or by a secp256k1 sender signature made with our key.
func (f *FeePayer) checkNotSelf(tx *types.AATx, sender common.Address) error {
	if sender == f.address {
		return ErrSelfSponsorship
	}
	switch tx.Signature.Type {
	case types.SignatureSecp256k1:
		hash := tx.SigHash()
		pub, err := crypto.SigToPub(hash[:], tx.Signature.Secp256k1.Bytes())
		if err == nil && crypto.PubkeyToAddress(*pub) == f.address {
			return ErrSelfSponsorship
		}
	case types.SignatureWebAuthn:
		// Passkey accounts are never keyed by the fee payer's secp256k1 key.
	}
	return nil
}
