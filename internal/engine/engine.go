// Package engine is the Eth3r protocol engine. It decodes inbound buffers,
// drives the connection, knock and room trackers and emits outbound requests
// through a Transport.
//
// Every entry point takes the engine lock, so inbound processing and local
// commands never mutate the trackers concurrently. Transport and Display are
// called with the lock held and must not call back into the engine.
package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/1ureka/dioxane/internal/identity"
	"github.com/1ureka/dioxane/internal/protocol"
	"github.com/1ureka/dioxane/internal/state"
	"github.com/1ureka/dioxane/internal/util"
)

// DefaultVersion is the protocol version announced in HEY.
const DefaultVersion uint16 = 0x0001

var (
	ErrRoomNotReady = errors.New("no open room with peer")
	ErrNoIdentity   = errors.New("engine needs a local identity")
	ErrNoTransport  = errors.New("engine needs a transport")
)

// Transport carries framed packets to the server. Send must not block on a
// reply.
type Transport interface {
	Send(data []byte) error
}

// Display receives every status change and anomaly. None of its methods can
// fail.
type Display interface {
	LogError(text string)
	LogDebug(text string)
	LogInfo(text string)
	LogSuccess(text string)
}

// MessageView is implemented by displays that render room logs. The engine
// checks for it at construction.
type MessageView interface {
	MessageAdded(room state.Room, msg state.Message)
	MessageAcknowledged(room state.Room, msg state.Message)
}

// Config wires an engine to its collaborators.
type Config struct {
	Self      *identity.Identity
	Version   uint16 // zero means DefaultVersion
	Directory *identity.Directory
	Transport Transport
	Display   Display
}

// Engine owns the protocol state of one server connection.
type Engine struct {
	mu sync.Mutex

	self      *identity.Identity
	version   uint16
	dir       *identity.Directory
	transport Transport
	display   Display
	view      MessageView

	conn   state.Connection
	knocks *state.Knocks
	rooms  *state.Rooms
}

// New creates an engine in the Disconnected state. A nil Directory or
// Display is replaced by an empty directory and a silent display.
func New(cfg Config) (*Engine, error) {
	if cfg.Self == nil {
		return nil, ErrNoIdentity
	}
	if cfg.Transport == nil {
		return nil, ErrNoTransport
	}
	if cfg.Version == 0 {
		cfg.Version = DefaultVersion
	}
	if cfg.Directory == nil {
		cfg.Directory = identity.NewDirectory()
	}
	if cfg.Display == nil {
		cfg.Display = nopDisplay{}
	}

	e := &Engine{
		self:      cfg.Self,
		version:   cfg.Version,
		dir:       cfg.Directory,
		transport: cfg.Transport,
		display:   cfg.Display,
		knocks:    state.NewKnocks(),
		rooms:     state.NewRooms(),
	}
	if v, ok := cfg.Display.(MessageView); ok {
		e.view = v
	}
	return e, nil
}

type nopDisplay struct{}

func (nopDisplay) LogError(string)   {}
func (nopDisplay) LogDebug(string)   {}
func (nopDisplay) LogInfo(string)    {}
func (nopDisplay) LogSuccess(string) {}

func (e *Engine) errorf(format string, args ...any) {
	e.display.LogError(fmt.Sprintf(format, args...))
}

func (e *Engine) debugf(format string, args ...any) {
	e.display.LogDebug(fmt.Sprintf(format, args...))
}

func (e *Engine) infof(format string, args ...any) {
	e.display.LogInfo(fmt.Sprintf(format, args...))
}

func (e *Engine) successf(format string, args ...any) {
	e.display.LogSuccess(fmt.Sprintf(format, args...))
}

// anomaly reports a protocol inconsistency. The session goes on.
func (e *Engine) anomaly(format string, args ...any) {
	util.Stats.AddAnomaly()
	e.errorf(format, args...)
}

// send encodes pkt and hands it to the transport.
func (e *Engine) send(pkt *protocol.Packet) error {
	e.debugf("sending %s", pkt)
	if err := e.transport.Send(protocol.Encode(pkt)); err != nil {
		e.errorf("cannot send %s: %v", pkt.Code, err)
		return fmt.Errorf("send %s: %w", pkt.Code, err)
	}
	return nil
}

// resolve returns the registered identity for keyID, registering a new
// unnamed one when the key id was never seen.
func (e *Engine) resolve(keyID []byte) (peer *identity.Identity, created bool) {
	if id, err := e.dir.LookupKeyID(keyID); err == nil {
		return id, false
	}
	id := identity.FromKeyID(keyID)
	e.dir.Register(id)
	return id, true
}

func (e *Engine) messageAdded(room *state.Room, msg *state.Message) {
	if e.view != nil {
		e.view.MessageAdded(room.Snapshot(), *msg)
	}
}

func (e *Engine) messageAcknowledged(room *state.Room, msg *state.Message) {
	if e.view != nil {
		e.view.MessageAcknowledged(room.Snapshot(), *msg)
	}
}

// Self returns the local identity.
func (e *Engine) Self() *identity.Identity {
	return e.self
}

// ConnectionState returns the handshake progress.
func (e *Engine) ConnectionState() state.ConnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.State()
}

// KnockState returns the state of the knock with peer.
func (e *Engine) KnockState(peer *identity.Identity) (state.KnockState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k, ok := e.knocks.Get(peer)
	if !ok {
		return 0, false
	}
	return k.State, true
}

// Knocks returns a copy of every knock.
func (e *Engine) Knocks() []state.Knock {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := e.knocks.All()
	out := make([]state.Knock, len(all))
	for i, k := range all {
		out[i] = *k
	}
	return out
}

// Rooms returns a copy of every room in opening order.
func (e *Engine) Rooms() []state.Room {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := e.rooms.All()
	out := make([]state.Room, len(all))
	for i, r := range all {
		out[i] = r.Snapshot()
	}
	return out
}

// Contacts returns a copy of the directory entries.
func (e *Engine) Contacts() []identity.Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := e.dir.All()
	out := make([]identity.Identity, len(all))
	for i, id := range all {
		out[i] = *id
	}
	return out
}

// Lookup resolves a peer by name or 0x-prefixed key id.
func (e *Engine) Lookup(query string) (*identity.Identity, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dir.Lookup(query)
}

// AddContact registers a peer.
func (e *Engine) AddContact(id *identity.Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dir.Register(id)
	e.infof("%s added as %s", id.Hex(), id.Name)
}

// RenamePeer changes the display name of a registered peer.
func (e *Engine) RenamePeer(peer *identity.Identity, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	old := peer.Name
	if err := e.dir.Rename(peer, name); err != nil {
		return err
	}
	e.infof("%s renamed to %s", old, name)
	return nil
}
