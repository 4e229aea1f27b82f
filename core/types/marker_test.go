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
	"testing"
)

func TestHasSponsorMarker(t *testing.T) {
	envelope := bytes.Repeat([]byte{0x76}, 40)
	raw := AppendSponsorSuffix(envelope, testSender, DefaultSponsorMarker)
	if !HasSponsorMarker(raw) {
		t.Fatal("marker not detected")
	}
	if !HasSponsorMarker(DefaultSponsorMarker) {
		t.Fatal("bare marker not detected")
	}
	for i := len(raw) - SponsorMarkerLength; i < len(raw); i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := bytes.Clone(raw)
			flipped[i] ^= 1 << bit
			if HasSponsorMarker(flipped) {
				t.Fatalf("marker detected with byte %d bit %d flipped", i, bit)
			}
		}
	}
	for _, input := range [][]byte{nil, {}, DefaultSponsorMarker[1:], envelope} {
		if HasSponsorMarker(input) {
			t.Fatalf("marker detected in %x", input)
		}
	}
	if HasMarker(raw, nil) {
		t.Fatal("empty marker matched")
	}
}

func TestSponsorSuffix(t *testing.T) {
	envelope := []byte{0x76, 0xc0, 0x01, 0x02}
	raw := AppendSponsorSuffix(envelope, testSender, DefaultSponsorMarker)
	if len(raw) != len(envelope)+SponsorSuffixLength {
		t.Fatalf("suffixed length %d", len(raw))
	}
	sender, err := SponsorSender(raw)
	if err != nil {
		t.Fatal(err)
	}
	if sender != testSender {
		t.Fatalf("sender %v, want %v", sender, testSender)
	}
	stripped, err := StripSponsorSuffix(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stripped, envelope) {
		t.Fatalf("stripped %x, want %x", stripped, envelope)
	}

	// Exactly the suffix: valid sender, empty envelope.
	if _, err := SponsorSender(raw[len(envelope):]); err != nil {
		t.Fatalf("suffix-only input: %v", err)
	}
	short := raw[len(raw)-SponsorSuffixLength+1:]
	if _, err := SponsorSender(short); !errors.Is(err, ErrMalformedMarker) {
		t.Fatalf("expected ErrMalformedMarker, got %v", err)
	}
	if _, err := StripSponsorSuffix(short); !errors.Is(err, ErrMalformedMarker) {
		t.Fatalf("expected ErrMalformedMarker, got %v", err)
	}
}
