package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/1ureka/dioxane/internal/contacts"
	"github.com/1ureka/dioxane/internal/engine"
	"github.com/1ureka/dioxane/internal/identity"
	"github.com/1ureka/dioxane/internal/protocol"
)

var (
	ErrQuit           = errors.New("quit")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrNoInjector     = errors.New("transport cannot inject server packets")
)

// Injector is implemented by transports that can fake server traffic.
type Injector interface {
	Inject(data []byte) error
}

type command struct {
	usage string
	help  string
	args  int // minimum argument count
	run   func(in *Interpreter, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"connect": {"connect", "start the handshake with the server", 0, (*Interpreter).connect},
		"knock":   {"knock <peer>", "ask the server for a room with peer", 1, (*Interpreter).knock},
		"accept":  {"accept <peer>", "accept a knock from peer", 1, (*Interpreter).accept},
		"refuse":  {"refuse <peer>", "refuse a knock from peer", 1, (*Interpreter).refuse},
		"send":    {"send <peer> <text...>", "send a message in the room with peer", 2, (*Interpreter).send},
		"close":   {"close <peer>", "close the room with peer", 1, (*Interpreter).close},
		"server":  {"server <hex...>", "inject raw bytes as if the server sent them", 1, (*Interpreter).server},
		"list":    {"list [contacts|knocks|rooms]", "show known peers, knocks or rooms", 0, (*Interpreter).list},
		"add":     {"add <name> <0xkeyid>", "add a contact", 2, (*Interpreter).add},
		"rename":  {"rename <peer> <name>", "rename a contact", 2, (*Interpreter).rename},
		"echo":    {"echo <text...>", "print text", 0, (*Interpreter).echo},
		"help":    {"help", "show this help", 0, (*Interpreter).help},
		"quit":    {"quit", "leave the client", 0, func(*Interpreter, []string) error { return ErrQuit }},
	}
}

// commandOrder is the order of the help listing.
var commandOrder = []string{
	"connect", "knock", "accept", "refuse", "send", "close",
	"list", "add", "rename", "server", "echo", "help", "quit",
}

// Interpreter runs one command line at a time against the engine. Peers are
// named by contact name, name fragment or 0x key id.
type Interpreter struct {
	engine   *engine.Engine
	store    *contacts.Store
	injector Injector
	display  engine.Display
	out      io.Writer
}

// NewInterpreter creates an interpreter. store and injector may be nil.
func NewInterpreter(e *engine.Engine, store *contacts.Store, injector Injector, display engine.Display, out io.Writer) *Interpreter {
	return &Interpreter{
		engine:   e,
		store:    store,
		injector: injector,
		display:  display,
		out:      out,
	}
}

// Execute runs line. Empty lines are ignored. ErrQuit is returned by quit.
func (in *Interpreter) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if len(args) < cmd.args {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
	}
	return cmd.run(in, args)
}

// peer resolves a peer argument. An unregistered 0x key id still names a
// peer, so strangers can be knocked.
func (in *Interpreter) peer(query string) (*identity.Identity, error) {
	id, err := in.engine.Lookup(query)
	if err == nil {
		return id, nil
	}
	if strings.HasPrefix(strings.ToLower(query), "0x") {
		keyID, hexErr := protocol.ParseHex(query)
		if hexErr == nil && len(keyID) > 0 {
			return identity.FromKeyID(keyID), nil
		}
	}
	return nil, err
}

func (in *Interpreter) connect(_ []string) error {
	return in.engine.Connect()
}

func (in *Interpreter) knock(args []string) error {
	p, err := in.peer(args[0])
	if err != nil {
		return err
	}
	if err := in.engine.Knock(p); err != nil {
		return err
	}
	return in.persist(p)
}

func (in *Interpreter) accept(args []string) error {
	return in.answer(args[0], true)
}

func (in *Interpreter) refuse(args []string) error {
	return in.answer(args[0], false)
}

func (in *Interpreter) answer(query string, accept bool) error {
	p, err := in.peer(query)
	if err != nil {
		return err
	}
	return in.engine.AnswerKnock(p, accept)
}

func (in *Interpreter) send(args []string) error {
	p, err := in.peer(args[0])
	if err != nil {
		return err
	}
	return in.engine.SendMessage(p, []byte(strings.Join(args[1:], " ")))
}

func (in *Interpreter) close(args []string) error {
	p, err := in.peer(args[0])
	if err != nil {
		return err
	}
	return in.engine.CloseRoom(p)
}

func (in *Interpreter) server(args []string) error {
	if in.injector == nil {
		return ErrNoInjector
	}
	data, err := protocol.ParseHex(args...)
	if err != nil {
		return err
	}
	return in.injector.Inject(data)
}

func (in *Interpreter) list(args []string) error {
	what := "contacts"
	if len(args) > 0 {
		what = strings.ToLower(args[0])
	}

	data := pterm.TableData{}
	switch what {
	case "contacts":
		data = append(data, []string{"Name", "Key id"})
		for _, id := range in.engine.Contacts() {
			data = append(data, []string{id.Name, id.Hex()})
		}
	case "knocks":
		data = append(data, []string{"Peer", "State"})
		for _, k := range in.engine.Knocks() {
			data = append(data, []string{k.Peer.Name, k.State.String()})
		}
	case "rooms":
		data = append(data, []string{"Room", "Id", "Peer", "Messages", "Closed"})
		for _, r := range in.engine.Rooms() {
			data = append(data, []string{
				r.ID.Name, r.ID.Hex(), r.Peer.Name,
				fmt.Sprint(len(r.Messages)), fmt.Sprint(r.Closed),
			})
		}
	default:
		return fmt.Errorf("%w: %s", ErrUsage, commands["list"].usage)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(in.out, table)
	return nil
}

func (in *Interpreter) add(args []string) error {
	keyID, err := protocol.ParseHex(args[1])
	if err != nil || len(keyID) == 0 {
		return fmt.Errorf("%w: %s", ErrUsage, commands["add"].usage)
	}
	id := identity.New(args[0], keyID, nil)
	in.engine.AddContact(id)
	return in.persist(id)
}

func (in *Interpreter) rename(args []string) error {
	p, err := in.engine.Lookup(args[0])
	if err != nil {
		return err
	}
	if err := in.engine.RenamePeer(p, args[1]); err != nil {
		return err
	}
	return in.persist(p)
}

func (in *Interpreter) echo(args []string) error {
	in.display.LogInfo(strings.Join(args, " "))
	return nil
}

func (in *Interpreter) help(_ []string) error {
	data := pterm.TableData{{"Command", "Description"}}
	for _, name := range commandOrder {
		cmd := commands[name]
		data = append(data, []string{cmd.usage, cmd.help})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(in.out, table)
	return nil
}

// persist saves a contact when a contact book is configured.
func (in *Interpreter) persist(id *identity.Identity) error {
	if in.store == nil {
		return nil
	}
	for _, c := range in.engine.Contacts() {
		if c.Equal(id) {
			return in.store.Save(&c)
		}
	}
	return nil
}
