// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package keystore

import (
	"fmt"
	"os"
	"path/filepath"
)

// filePersistence stores one PEM-encoded private key per name under a
// directory, the default backing store for a process's long-lived key.
type filePersistence struct {
	dir string
}

// NewFilePersistence creates a directory-backed key store, creating dir
// (mode 0700) if it does not already exist.
func NewFilePersistence(dir string) (Persistence, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore directory: %w", err)
	}
	return &filePersistence{dir: dir}, nil
}

func (f *filePersistence) path(name string) string {
	return filepath.Join(f.dir, name+".pem")
}

func (f *filePersistence) Save(name string, keyPair KeyPair) error {
	data, err := EncodePrivatePEM(keyPair)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}
	return os.WriteFile(f.path(name), data, 0600)
}

func (f *filePersistence) Load(name string, _ Algorithm) (KeyPair, error) {
	data, err := os.ReadFile(f.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return DecodePrivatePEM(data)
}

func (f *filePersistence) Exists(name string) bool {
	_, err := os.Stat(f.path(name))
	return err == nil
}
