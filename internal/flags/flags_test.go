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

package flags

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	if home == "" {
		if u, err := user.Current(); err == nil {
			home = u.HomeDir
		}
	}
	os.Setenv("SPONSOR_TEST_DIR", "/var/lib/sponsor")
	defer os.Unsetenv("SPONSOR_TEST_DIR")

	tests := map[string]string{
		"":                         "",
		"/home/someuser/tmp":       "/home/someuser/tmp",
		"~/tmp":                    filepath.Join(home, "tmp"),
		"~thisOtherUser/b/":        "~thisOtherUser/b",
		"$SPONSOR_TEST_DIR/key":    "/var/lib/sponsor/key",
		"/a/b/":                    "/a/b",
		"/a/b/../c/./password.txt": "/a/c/password.txt",
	}
	for test, expected := range tests {
		got := expandPath(test)
		if got != expected {
			t.Errorf("expandPath(%q) = %q, want %q", test, got, expected)
		}
	}
}

func TestParseAddresses(t *testing.T) {
	addrs, err := ParseAddresses("feetoken.allow", "0x20c0000000000000000000000000000000000001, ,0x20C0000000000000000000000000000000000002")
	if err != nil {
		t.Fatal(err)
	}
	want := []common.Address{
		common.HexToAddress("0x20c0000000000000000000000000000000000001"),
		common.HexToAddress("0x20c0000000000000000000000000000000000002"),
	}
	if len(addrs) != len(want) || addrs[0] != want[0] || addrs[1] != want[1] {
		t.Fatalf("wrong addresses %v", addrs)
	}
	if _, err := ParseAddresses("feetoken.allow", "0x1234"); err == nil {
		t.Fatal("expected error for short address")
	}
	if addrs, err := ParseAddresses("feetoken.allow", ""); err != nil || len(addrs) != 0 {
		t.Fatalf("empty list: %v %v", addrs, err)
	}
}
