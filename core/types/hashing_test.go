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
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

func TestPrefixedRlpHash(t *testing.T) {
	items := []interface{}{uint64(42429), common.Address{0x20, 0xc0}, []byte{0xde, 0xad}}
	enc, err := rlp.EncodeToBytes(items)
	if err != nil {
		t.Fatal(err)
	}
	for _, prefix := range []byte{AATxType, FeePayerMagic} {
		want := crypto.Keccak256Hash(append([]byte{prefix}, enc...))
		if have := prefixedRlpHash(prefix, items); have != want {
			t.Errorf("prefix %#x: hash mismatch: have %x, want %x", prefix, have, want)
		}
		out, err := prefixedRlpEncode(prefix, items)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(out, append([]byte{prefix}, enc...)) {
			t.Errorf("prefix %#x: encoding mismatch: %x", prefix, out)
		}
	}
}

// The pools are shared by concurrent relay requests.
func TestPrefixedRlpHashConcurrent(t *testing.T) {
	tx := testAATx()
	want := tx.FeePayerSigHash(testSender)

	var wg sync.WaitGroup
	errs := make(chan common.Hash, 64)
	for i := 0; i < cap(errs); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if h := tx.FeePayerSigHash(testSender); h != want {
				errs <- h
			}
		}()
	}
	wg.Wait()
	close(errs)
	for h := range errs {
		t.Errorf("concurrent hash mismatch: %x", h)
	}
}
