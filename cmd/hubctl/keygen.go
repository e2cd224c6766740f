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

var (
	keygenDir       string
	keygenAlgorithm string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate (or load) the process signing key pair",
	Long: `Generate a new long-lived signing key pair if the keystore directory
does not already hold one, or load the existing one. A process owns exactly
one signing key: repeated calls against the same --dir are idempotent.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenDir, "dir", ".sagehub/keys", "keystore directory")
	keygenCmd.Flags().StringVar(&keygenAlgorithm, "algorithm", "ed25519", "key algorithm (ed25519, secp256k1)")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	persistence, err := keystore.NewFilePersistence(keygenDir)
	if err != nil {
		return fmt.Errorf("open keystore directory: %w", err)
	}
	store, err := keystore.NewStore(persistence, keystore.Algorithm(keygenAlgorithm))
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}
	kp, err := store.Ensure()
	if err != nil {
		return fmt.Errorf("provision signing key: %w", err)
	}
	fingerprint, err := store.Fingerprint()
	if err != nil {
		return fmt.Errorf("compute fingerprint: %w", err)
	}
	fmt.Printf("algorithm:   %s\n", kp.Algorithm())
	fmt.Printf("fingerprint: %s\n", fingerprint)
	fmt.Printf("directory:   %s\n", keygenDir)
	return nil
}
