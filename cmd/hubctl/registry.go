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

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a client's registered agents from a running hub",
	Long: `Calls GET /api/v1/agents/directory on a running hub and prints the
directory view: agent id, kind, status, and whether it is currently online.`,
	RunE: runRegistryList,
}

var (
	regHubAddr     string
	regClientID    string
	regCapability  string
)

func init() {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect a running hub's agent registry",
	}
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryListCmd)

	registryListCmd.Flags().StringVar(&regHubAddr, "hub", "http://localhost:8080", "hub base URL")
	registryListCmd.Flags().StringVar(&regClientID, "client", "", "client id to scope the lookup to (required)")
	registryListCmd.Flags().StringVar(&regCapability, "capability", "", "filter by capability tag")
	registryListCmd.MarkFlagRequired("client")
}

type directoryEntry struct {
	AgentID      string    `json:"agent_id"`
	Kind         string    `json:"kind"`
	Capabilities []string  `json:"capabilities"`
	Status       string    `json:"status"`
	LastSeen     time.Time `json:"last_seen"`
	Online       bool      `json:"online"`
}

type directoryResponse struct {
	Agents []directoryEntry `json:"agents"`
	Count  int              `json:"count"`
}

func runRegistryList(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(regHubAddr, "/") + "/api/v1/agents/directory"
	if regCapability != "" {
		url += "?capability=" + regCapability
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Client-ID", regClientID)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call hub: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hub returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var dir directoryResponse
	if err := json.Unmarshal(body, &dir); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if dir.Count == 0 {
		fmt.Println("no agents registered")
		return nil
	}

	fmt.Printf("%-20s %-10s %-10s %-8s %s\n", "AGENT ID", "KIND", "STATUS", "ONLINE", "LAST SEEN")
	for _, a := range dir.Agents {
		fmt.Printf("%-20s %-10s %-10s %-8t %s\n", a.AgentID, a.Kind, a.Status, a.Online, a.LastSeen.Format(time.RFC3339))
	}
	fmt.Printf("\n%d agent(s)\n", dir.Count)
	return nil
}
