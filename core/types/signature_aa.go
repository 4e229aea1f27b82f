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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureType enumerates the sender signature schemes the relay understands.
// New schemes are added here and in every switch over SignatureType.
//
// 发送者签名类型：secp256k1 或 WebAuthn（通行密钥）。
type SignatureType uint8

const (
	SignatureSecp256k1 SignatureType = iota + 1
	SignatureWebAuthn
)

const (
	// webAuthnPrefix tags a WebAuthn (passkey) assertion on the wire.
	webAuthnPrefix = 0x02

	// webAuthnMinLength is the size of the trailing r, s, pubKeyX and pubKeyY
	// words of an assertion. Real assertions also carry authenticator data and
	// client data, so they are strictly longer.
	webAuthnMinLength = 4 * 32
)

var errUnknownSignature = errors.New("unknown sender signature type")

func (t SignatureType) String() string {
	switch t {
	case SignatureSecp256k1:
		return "secp256k1"
	case SignatureWebAuthn:
		return "webAuthn"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// SenderSignature is the signature authorising the transaction on behalf of the
// sending account. Exactly one of Secp256k1 or WebAuthn is meaningful, as
// selected by Type.
type SenderSignature struct {
	Type      SignatureType
	Secp256k1 AASignature // Type == SignatureSecp256k1
	WebAuthn  []byte      // Type == SignatureWebAuthn, opaque credential assertion
}

// Copy returns a deep copy of the signature.
func (s *SenderSignature) Copy() *SenderSignature {
	cpy := *s
	cpy.WebAuthn = common.CopyBytes(s.WebAuthn)
	return &cpy
}

// MarshalBinary encodes the signature: secp256k1 signatures are the raw 65 byte
// [R || S || V] form, WebAuthn assertions are prefixed with 0x02.
func (s *SenderSignature) MarshalBinary() ([]byte, error) {
	switch s.Type {
	case SignatureSecp256k1:
		if s.Secp256k1.YParity > 1 {
			return nil, fmt.Errorf("invalid y parity %d", s.Secp256k1.YParity)
		}
		return s.Secp256k1.Bytes(), nil
	case SignatureWebAuthn:
		if len(s.WebAuthn) <= webAuthnMinLength {
			return nil, fmt.Errorf("webAuthn assertion too short: %d bytes", len(s.WebAuthn))
		}
		return append([]byte{webAuthnPrefix}, s.WebAuthn...), nil
	default:
		return nil, fmt.Errorf("%w: %v", errUnknownSignature, s.Type)
	}
}

// UnmarshalBinary decodes a sender signature. A 65 byte value is always taken
// as secp256k1, which keeps the two encodings unambiguous.
//
// 65 字节为 secp256k1，0x02 前缀为 WebAuthn，其他长度视为格式错误。
func (s *SenderSignature) UnmarshalBinary(b []byte) error {
	switch {
	case len(b) == crypto.SignatureLength:
		sig, err := AASignatureFromBytes(b)
		if err != nil {
			return err
		}
		*s = SenderSignature{Type: SignatureSecp256k1, Secp256k1: *sig}
	case len(b) > 0 && b[0] == webAuthnPrefix:
		if len(b)-1 <= webAuthnMinLength {
			return fmt.Errorf("webAuthn assertion too short: %d bytes", len(b)-1)
		}
		*s = SenderSignature{Type: SignatureWebAuthn, WebAuthn: common.CopyBytes(b[1:])}
	case len(b) > 0:
		return fmt.Errorf("%w: prefix 0x%02x, %d bytes", errUnknownSignature, b[0], len(b))
	default:
		return fmt.Errorf("%w: empty", errUnknownSignature)
	}
	return nil
}
