package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/dioxane/internal/config"
	"github.com/1ureka/dioxane/internal/util"
)

// prompter asks the user for first-run settings.
type prompter interface {
	Select(label string, options []string) (string, error)
	Text(label string) (string, error)
}

type ptermPrompter struct{}

func (ptermPrompter) Select(label string, options []string) (string, error) {
	return pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultText(label).
		Show()
}

func (ptermPrompter) Text(label string) (string, error) {
	return pterm.DefaultInteractiveTextInput.
		WithDefaultText(label).
		Show()
}

var prompts prompter = ptermPrompter{}

// needsSetup reports whether the interactive setup should run: there is no
// config file at path and no server was chosen on the command line.
func needsSetup(path string, serverFlagged bool) bool {
	if serverFlagged {
		return false
	}
	_, err := os.Stat(path)
	return errors.Is(err, fs.ErrNotExist)
}

// setupConfig asks for the transport, the server endpoint and the local name,
// then writes cfg to path.
func setupConfig(p prompter, cfg *config.Config, path string) error {
	transports := []string{
		string(config.TransportTCP),
		string(config.TransportWebSocket),
		string(config.TransportMemory),
	}
	kind, err := p.Select("Select the transport", transports)
	if err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}
	pterm.Println()

	switch config.TransportKind(kind) {
	case config.TransportWebSocket:
		u, err := askURL(p)
		if err != nil {
			return err
		}
		cfg.Server.Transport = config.TransportWebSocket
		cfg.Server.URL = u
	case config.TransportMemory:
		cfg.Server.Transport = config.TransportMemory
		cfg.Server.EchoAck = true
	default:
		addr, err := askAddress(p)
		if err != nil {
			return err
		}
		cfg.Server.Transport = config.TransportTCP
		cfg.Server.Address = addr
	}

	name, err := p.Text(fmt.Sprintf("Your name (empty keeps %s)", cfg.Identity.Name))
	if err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}
	if name = strings.TrimSpace(name); name != "" {
		cfg.Identity.Name = name
	}
	pterm.Println()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	util.LogSuccess("config written to %s", path)
	return nil
}

// askAddress prompts for a host:port until a valid one is entered.
func askAddress(p prompter) (string, error) {
	for {
		raw, err := p.Text("Server address (host:port)")
		if err != nil {
			return "", fmt.Errorf("setup aborted: %w", err)
		}
		addr, err := normalizeAddress(raw)
		if err == nil {
			pterm.Println()
			return addr, nil
		}
		util.LogWarning("%v", err)
		pterm.Println()
	}
}

// askURL prompts for a WebSocket URL until a valid one is entered.
func askURL(p prompter) (string, error) {
	for {
		raw, err := p.Text("Server URL (ws:// or wss://)")
		if err != nil {
			return "", fmt.Errorf("setup aborted: %w", err)
		}
		u, err := normalizeWSURL(raw)
		if err == nil {
			pterm.Println()
			return u, nil
		}
		util.LogWarning("%v", err)
		pterm.Println()
	}
}

func normalizeAddress(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	host, portStr, err := net.SplitHostPort(raw)
	if err != nil || host == "" {
		return "", fmt.Errorf("invalid server address: %q", raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", errors.New("invalid port number: must be 1 ~ 65535")
	}
	return raw, nil
}

// normalizeWSURL validates a WebSocket URL. A bare host gets the ws scheme.
func normalizeWSURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "ws" && u.Scheme != "wss") {
		return "", fmt.Errorf("invalid WebSocket URL: %s", raw)
	}
	return u.String(), nil
}
