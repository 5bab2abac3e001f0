// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Server status command handler for the medinsight CLI.
//
// CLI: Comprehensive help and examples for all commands
//
// Handles the "medinsight status" command: probe the configured server's
// health endpoint and summarize the local configuration.
//
// Command: status
// Short:   Check server health and configuration
// Aliases: s, health
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/medinsight-tui/internal/agent"
	"github.com/jeranaias/medinsight-tui/internal/config"
)

// healthProbeTimeout bounds the status command's health request.
const healthProbeTimeout = 5 * time.Second

// HandleStatus executes the status command. Returns the process exit code.
func HandleStatus(args Args) int {
	cfg, err := config.Load()
	if err != nil {
		PrintError("load config: " + err.Error())
		return 1
	}

	url := cfg.Server.URL
	if args.Server != "" {
		url = args.Server
	}

	client, err := newClientFromArgs(args)
	if err != nil {
		PrintError(err.Error())
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthProbeTimeout)
	defer cancel()

	status, healthErr := client.Health(ctx)

	if args.JSON {
		return printStatusJSON(url, status, healthErr)
	}

	fmt.Println(TitleStyle.Render("medinsight status"))

	fmt.Printf("%s %s\n", LabelStyle.Render("Server:"), ValueStyle.Render(url))
	if healthErr != nil {
		fmt.Printf("%s %s\n", LabelStyle.Render("Health:"), ErrorStyle.Render("[X] unreachable"))
		fmt.Printf("%s %s\n", LabelStyle.Render(""), DimStyle.Render(healthErr.Error()))
	} else {
		fmt.Printf("%s %s\n", LabelStyle.Render("Health:"), SuccessStyle.Render("[OK] "+status.Status))
		if status.Checkpointer != "" {
			fmt.Printf("%s %s\n", LabelStyle.Render("Checkpointer:"), ValueStyle.Render(status.Checkpointer))
		}
	}

	fmt.Println()
	fmt.Printf("%s %s\n", LabelStyle.Render("Config:"), DimStyle.Render(configPathForDisplay()))
	fmt.Printf("%s %s\n", LabelStyle.Render("Theme:"), ValueStyle.Render(cfg.UI.Theme))
	fmt.Printf("%s %s\n", LabelStyle.Render("Language:"), ValueStyle.Render(cfg.UI.Language))
	fmt.Printf("%s %s\n", LabelStyle.Render("Timeout:"), ValueStyle.Render(fmt.Sprintf("%ds", cfg.Server.TimeoutSecs)))

	if healthErr != nil {
		return 1
	}
	return 0
}

// printStatusJSON renders the status command output in JSON for scripts.
func printStatusJSON(url string, status *agent.HealthStatus, healthErr error) int {
	out := statusReport{Server: url}
	if healthErr != nil {
		out.Reachable = false
		out.Error = healthErr.Error()
	} else {
		out.Reachable = true
		out.Status = status.Status
		out.Checkpointer = status.Checkpointer
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		PrintError(err.Error())
		return 1
	}
	fmt.Println(string(data))

	if !out.Reachable {
		return 1
	}
	return 0
}

// statusReport is the JSON shape emitted by "status --json".
type statusReport struct {
	Server       string `json:"server"`
	Reachable    bool   `json:"reachable"`
	Status       string `json:"status,omitempty"`
	Checkpointer string `json:"checkpointer,omitempty"`
	Error        string `json:"error,omitempty"`
}

// configPathForDisplay returns the config path or a placeholder when the
// home directory cannot be resolved.
func configPathForDisplay() string {
	path, err := config.ConfigPath()
	if err != nil {
		return "(unavailable)"
	}
	return path
}
