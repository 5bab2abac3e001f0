// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler for the medinsight CLI.
//
// CLI: Comprehensive help and examples for all commands
//
// Handles the "medinsight config" command with subcommands:
//   show   Display current configuration (default)
//   set    Set a configuration value and save
//   path   Print the configuration file path
//
// Keys use dotted section.field form, matching the TOML layout:
//   server.url, server.timeout_secs, server.max_retries,
//   ui.theme, ui.language, ui.sidebar_visible, ui.sidebar_width,
//   ui.show_steps, log.enabled
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/medinsight-tui/internal/config"
)

// HandleConfig executes the config command. Returns the process exit code.
func HandleConfig(args Args) int {
	switch args.Subcommand {
	case "", "show":
		return configShow()
	case "set":
		return configSet(args.ConfigKey, args.ConfigVal)
	case "path":
		fmt.Println(configPathForDisplay())
		return 0
	default:
		PrintError("unknown config subcommand: " + args.Subcommand)
		fmt.Println(DimStyle.Render("usage: medinsight config [show|set KEY VALUE|path]"))
		return 1
	}
}

// configShow prints the effective configuration, including env overrides.
func configShow() int {
	cfg, err := config.Load()
	if err != nil {
		PrintError("load config: " + err.Error())
		return 1
	}

	fmt.Println(TitleStyle.Render("medinsight configuration"))
	fmt.Println(DimStyle.Render(configPathForDisplay()))
	fmt.Println()

	rows := []struct{ key, value string }{
		{"server.url", cfg.Server.URL},
		{"server.timeout_secs", strconv.Itoa(cfg.Server.TimeoutSecs)},
		{"server.max_retries", strconv.Itoa(cfg.Server.MaxRetries)},
		{"ui.theme", cfg.UI.Theme},
		{"ui.language", cfg.UI.Language},
		{"ui.sidebar_visible", strconv.FormatBool(cfg.UI.SidebarVisible)},
		{"ui.sidebar_width", strconv.Itoa(cfg.UI.SidebarWidth)},
		{"ui.show_steps", strconv.FormatBool(cfg.UI.ShowSteps)},
		{"log.enabled", strconv.FormatBool(cfg.Log.Enabled)},
	}
	for _, row := range rows {
		fmt.Printf("%s %s\n", LabelStyle.Render(row.key), ValueStyle.Render(row.value))
	}
	return 0
}

// configSet applies one key=value change, validates, and saves.
func configSet(key, value string) int {
	if key == "" || value == "" {
		PrintError("usage: medinsight config set KEY VALUE")
		return 1
	}

	// Env overrides are deliberately not applied here so the saved file
	// reflects only what the user set, not the current environment.
	cfg, err := config.LoadForEdit()
	if err != nil {
		PrintError("load config: " + err.Error())
		return 1
	}

	if err := applyConfigValue(cfg, key, value); err != nil {
		PrintError(err.Error())
		return 1
	}

	if err := cfg.Validate(); err != nil {
		PrintError("invalid value: " + err.Error())
		return 1
	}

	if err := config.Save(cfg); err != nil {
		PrintError("save config: " + err.Error())
		return 1
	}

	PrintSuccess(key + " = " + value)
	return 0
}

// applyConfigValue sets one dotted key on the config struct.
func applyConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "server.url":
		cfg.Server.URL = value
	case "server.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Server.TimeoutSecs = n
	case "server.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.Server.MaxRetries = n
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.language":
		cfg.UI.Language = value
	case "ui.sidebar_visible":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.SidebarVisible = b
	case "ui.sidebar_width":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.UI.SidebarWidth = n
	case "ui.show_steps":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.ShowSteps = b
	case "log.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Log.Enabled = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
