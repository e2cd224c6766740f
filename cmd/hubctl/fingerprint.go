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

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage-hub/keystore"
)

var fingerprintDir string

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the current signing key's fingerprint and public key PEM",
	RunE:  runFingerprint,
}

func init() {
	rootCmd.AddCommand(fingerprintCmd)
	fingerprintCmd.Flags().StringVar(&fingerprintDir, "dir", ".sagehub/keys", "keystore directory")
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	persistence, err := keystore.NewFilePersistence(fingerprintDir)
	if err != nil {
		return fmt.Errorf("open keystore directory: %w", err)
	}
	store, err := keystore.NewStore(persistence, keystore.AlgorithmEd25519)
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	fingerprint, err := store.Fingerprint()
	if err != nil {
		return fmt.Errorf("compute fingerprint: %w", err)
	}
	pubPEM, err := store.PublicKeyPEM()
	if err != nil {
		return fmt.Errorf("read public key: %w", err)
	}
	fmt.Printf("fingerprint: %s\n", fingerprint)
	fmt.Println(string(pubPEM))
	return nil
}
