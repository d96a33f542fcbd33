// Dioxane CLI entry point.
//
// Dioxane is a terminal client for the Eth3r chat protocol. It performs the
// handshake with an Eth3r server, knocks on peers, and exchanges messages in
// the rooms the server opens.
//
// Settings come from a TOML file (-config) and can be overridden by flags.
// Without a config file or a server flag, the client asks for the server
// and the local name and writes the answers to the config file.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/1ureka/dioxane/internal/config"
	"github.com/1ureka/dioxane/internal/console"
	"github.com/1ureka/dioxane/internal/contacts"
	"github.com/1ureka/dioxane/internal/engine"
	"github.com/1ureka/dioxane/internal/identity"
	"github.com/1ureka/dioxane/internal/protocol"
	"github.com/1ureka/dioxane/internal/transport"
	"github.com/1ureka/dioxane/internal/util"
)

var version = "dev"

const statsInterval = 10 * time.Second

var (
	cfgFile     string
	serverAddr  string
	transportFl string
	wsURL       string
	debugMode   bool
	name        string
	keyID       string
	autoConnect bool
	echoAck     bool
)

var rootCmd = &cobra.Command{
	Use:           "dioxane",
	Short:         "Terminal client for the Eth3r chat protocol",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runClient,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex...>",
	Short: "Decode one Eth3r packet given as hex words",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := protocol.ParseHex(args...)
		if err != nil {
			return err
		}
		if protocol.IsGoodbye(data) {
			fmt.Fprintln(cmd.OutOrStdout(), "<Goodbye>")
			return nil
		}
		pkt, err := protocol.Decode(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pkt)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the client version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dioxane %s (protocol version 0x%04x)\n", version, engine.DefaultVersion)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "dioxane.toml", "config file")
	flags.StringVar(&serverAddr, "server", "", "server address for the tcp transport (host:port)")
	flags.StringVar(&transportFl, "transport", "", "transport: tcp, ws or memory")
	flags.StringVar(&wsURL, "ws-url", "", "server URL for the ws transport")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")
	flags.StringVar(&name, "name", "", "local identity name")
	flags.StringVar(&keyID, "key-id", "", "local key id (0x-prefixed hex)")
	flags.BoolVar(&autoConnect, "auto-connect", false, "start the handshake on launch")
	flags.BoolVar(&echoAck, "echo-ack", false, "memory transport answers every packet with ACK")

	rootCmd.AddCommand(decodeCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if needsSetup(cfgFile, flags.Changed("transport") || flags.Changed("server")) {
		if err := setupConfig(prompts, cfg, cfgFile); err != nil {
			return nil, err
		}
	}
	if flags.Changed("server") {
		cfg.Server.Address = serverAddr
	}
	if flags.Changed("transport") {
		cfg.Server.Transport = config.TransportKind(transportFl)
	}
	if flags.Changed("ws-url") {
		cfg.Server.URL = wsURL
	}
	if flags.Changed("echo-ack") {
		cfg.Server.EchoAck = echoAck
	}
	if flags.Changed("debug") {
		cfg.Logging.Debug = debugMode
	}
	if flags.Changed("name") {
		cfg.Identity.Name = name
	}
	if flags.Changed("key-id") {
		cfg.Identity.KeyID = keyID
	}
	if flags.Changed("auto-connect") {
		cfg.Protocol.AutoConnect = autoConnect
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newTransport(cfg *config.Config) transport.Transport {
	switch cfg.Server.Transport {
	case config.TransportWebSocket:
		return transport.NewWebSocket(cfg.Server.URL)
	case config.TransportMemory:
		return transport.NewMemory(cfg.Server.EchoAck)
	default:
		return transport.NewTCP(cfg.Server.Address)
	}
}

func runClient(cmd *cobra.Command, _ []string) error {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Logging.Debug {
		util.EnableDebug()
	}
	if util.DebugEnabled() {
		util.StartStatsReporter(ctx, statsInterval)
	}

	pterm.Info.Println(fmt.Sprintf("Dioxane v%s", version))
	pterm.Println()

	self, _ := cfg.Self()
	protoVersion, _ := cfg.Version()
	seeds, _ := cfg.Seeds()

	dir := identity.NewDirectory()
	for _, id := range seeds {
		dir.Register(id)
	}

	var store *contacts.Store
	if cfg.Contacts.Path != "" {
		store, err = contacts.Open(cfg.Contacts.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		n, err := store.LoadInto(dir)
		if err != nil {
			return err
		}
		util.LogDebug("loaded %d contacts from %s", n, cfg.Contacts.Path)
	}
	util.LogDebug("%d contacts known", dir.Len())

	tr := newTransport(cfg)
	display := console.Display{}
	eng, err := engine.New(engine.Config{
		Self:      self,
		Version:   protoVersion,
		Directory: dir,
		Transport: tr,
		Display:   display,
	})
	if err != nil {
		return err
	}

	var injector console.Injector
	if mem, ok := tr.(*transport.Memory); ok {
		injector = mem
	}

	session := console.NewSession(console.SessionConfig{
		Engine:      eng,
		Transport:   tr,
		Interpreter: console.NewInterpreter(eng, store, injector, display, os.Stdout),
		Input:       os.Stdin,
		AutoConnect: cfg.Protocol.AutoConnect,
	})

	util.LogInfo("logged in as %s (%s), type help for commands", self, self.Hex())
	err = session.Run(ctx)
	switch {
	case errors.Is(err, console.ErrGoodbye):
		util.LogInfo("server closed the session")
		return nil
	case err != nil:
		return err
	}
	util.LogInfo("bye")
	return nil
}
