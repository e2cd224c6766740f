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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var attestShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch a component's current attestation evidence",
	Long: `Calls GET /attestation on a hub or agent's attestation port and prints
its public key fingerprint and development-mode status.`,
	RunE: runAttestShow,
}

var attestAddr string

func init() {
	attestCmd := &cobra.Command{
		Use:   "attest",
		Short: "Inspect a component's attestation endpoint",
	}
	rootCmd.AddCommand(attestCmd)
	attestCmd.AddCommand(attestShowCmd)

	attestShowCmd.Flags().StringVar(&attestAddr, "addr", "http://localhost:29343", "attestation endpoint base URL")
}

type attestationResponse struct {
	Status          string `json:"status"`
	AgentID         string `json:"agent_id"`
	Fingerprint     string `json:"fingerprint"`
	DevelopmentMode bool   `json:"development_mode"`
}

func runAttestShow(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(attestAddr, "/") + "/attestation"

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("call attestation endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var out attestationResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Printf("status:           %s\n", out.Status)
	fmt.Printf("agent_id:         %s\n", out.AgentID)
	fmt.Printf("fingerprint:      %s\n", out.Fingerprint)
	fmt.Printf("development_mode: %t\n", out.DevelopmentMode)
	return nil
}
