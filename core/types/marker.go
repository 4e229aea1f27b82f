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
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// A client asking for fee sponsorship appends the sending account and a fixed
// marker to the serialized envelope:
//
//	envelope || sender (20 bytes) || 0xfeefeefeefee
//
// The suffix is routing metadata for the relay only. It is never part of what
// gets broadcast.
// 赞助请求的后缀：发送方地址 + 固定标记，仅供中继路由使用，不会广播到链上。

const (
	// SponsorMarkerLength is the length of the sponsorship marker.
	SponsorMarkerLength = 6

	// SponsorSuffixLength is the length of sender address plus marker.
	SponsorSuffixLength = common.AddressLength + SponsorMarkerLength
)

// DefaultSponsorMarker is the marker wallets append to request sponsorship.
var DefaultSponsorMarker = []byte{0xfe, 0xef, 0xee, 0xfe, 0xef, 0xee}

var ErrMalformedMarker = errors.New("malformed sponsorship suffix")

// HasSponsorMarker reports whether raw ends with the default marker.
func HasSponsorMarker(raw []byte) bool {
	return HasMarker(raw, DefaultSponsorMarker)
}

// HasMarker reports whether the trailing bytes of raw equal marker exactly.
//
// 逐字节比较，不做任何大小写或部分匹配。
func HasMarker(raw, marker []byte) bool {
	if len(marker) == 0 || len(raw) < len(marker) {
		return false
	}
	return bytes.Equal(raw[len(raw)-len(marker):], marker)
}

// SponsorSender returns the 20 bytes preceding the marker.
func SponsorSender(raw []byte) (common.Address, error) {
	if len(raw) < SponsorSuffixLength {
		return common.Address{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedMarker, len(raw), SponsorSuffixLength)
	}
	end := len(raw) - SponsorMarkerLength
	return common.BytesToAddress(raw[end-common.AddressLength : end]), nil
}

// StripSponsorSuffix returns raw without the sender address and marker. The
// result aliases raw.
func StripSponsorSuffix(raw []byte) ([]byte, error) {
	if len(raw) < SponsorSuffixLength {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedMarker, len(raw), SponsorSuffixLength)
	}
	return raw[:len(raw)-SponsorSuffixLength], nil
}

// AppendSponsorSuffix is the client side of the convention: it appends sender
// and marker to a serialized envelope.
func AppendSponsorSuffix(envelope []byte, sender common.Address, marker []byte) []byte {
	out := make([]byte, 0, len(envelope)+common.AddressLength+len(marker))
	out = append(out, envelope...)
	out = append(out, sender.Bytes()...)
	return append(out, marker...)
}
