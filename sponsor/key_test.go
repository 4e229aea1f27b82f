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
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "8a1f9a8f95be41cd7ccb6168179afb4504aefe388d1e14474d32c45c72ce7b7a"

func TestLoadKeyHex(t *testing.T) {
	want := crypto.PubkeyToAddress(feePayerKey.PublicKey)
	for _, in := range []string{testKeyHex, "0x" + testKeyHex, " " + testKeyHex + "\n"} {
		key, err := LoadKey(in, "", "")
		require.NoError(t, err)
		require.Equal(t, want, crypto.PubkeyToAddress(key.PublicKey))
	}

	_, err := LoadKey("not-a-key", "", "")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "not-a-key")

	_, err = LoadKey("", "", "")
	require.ErrorIs(t, err, ErrNoKey)
}

func TestLoadKeyKeystore(t *testing.T) {
	dir := t.TempDir()
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(feePayerKey.PublicKey),
		PrivateKey: feePayerKey,
	}
	keyjson, err := keystore.EncryptKey(key, "foo", keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	keyfile := filepath.Join(dir, "key.json")
	require.NoError(t, os.WriteFile(keyfile, keyjson, 0600))
	pwfile := filepath.Join(dir, "password")
	require.NoError(t, os.WriteFile(pwfile, []byte("foo\nignored\n"), 0600))

	loaded, err := LoadKey("", keyfile, pwfile)
	require.NoError(t, err)
	require.Equal(t, key.Address, crypto.PubkeyToAddress(loaded.PublicKey))

	// Hex key wins over the keystore.
	loaded, err = LoadKey(testKeyHex, filepath.Join(dir, "missing"), "")
	require.NoError(t, err)
	require.Equal(t, key.Address, crypto.PubkeyToAddress(loaded.PublicKey))

	require.NoError(t, os.WriteFile(pwfile, []byte("wrong"), 0600))
	_, err = LoadKey("", keyfile, pwfile)
	require.ErrorIs(t, err, keystore.ErrDecrypt)
}
