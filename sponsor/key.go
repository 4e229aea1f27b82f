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
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrNoKey = errors.New("no fee payer key configured")

// LoadKey loads the backend key, either from a hex string or from an encrypted
// keystore file unlocked with the first line of passwordFile. Errors never
// contain key material.
//
// 解析失败时的错误信息不会包含私钥内容。
func LoadKey(hexkey, keyfile, passwordFile string) (*ecdsa.PrivateKey, error) {
	if hexkey = strings.TrimSpace(hexkey); hexkey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexkey, "0x"))
		if err != nil {
			return nil, errors.New("invalid hex private key")
		}
		return key, nil
	}
	if keyfile == "" {
		return nil, ErrNoKey
	}
	keyjson, err := os.ReadFile(keyfile)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyfile: %w", err)
	}
	var password string
	if passwordFile != "" {
		text, err := os.ReadFile(passwordFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read password file: %w", err)
		}
		password = strings.TrimRight(strings.Split(string(text), "\n")[0], "\r")
	}
	key, err := keystore.DecryptKey(keyjson, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt keyfile %s: %w", keyfile, err)
	}
	return key.PrivateKey, nil
}
