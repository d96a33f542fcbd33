package engine

import (
	"fmt"

	"github.com/1ureka/dioxane/internal/identity"
	"github.com/1ureka/dioxane/internal/protocol"
	"github.com/1ureka/dioxane/internal/state"
)

// Outbound operations never wait for the server. Their acknowledgement comes
// back later through Receive.

// Connect announces the protocol version and starts the handshake.
func (e *Engine) Connect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.conn.State(); s != state.Disconnected {
		e.anomaly("connect requested while %s", s)
		return fmt.Errorf("connect: %w: already %s", state.ErrInvalidTransition, s)
	}
	if err := e.send(protocol.NewHey(e.version)); err != nil {
		return err
	}
	_ = e.conn.Advance(state.VersionSent)
	e.infof("version 0x%04x sent", e.version)
	return nil
}

// SendKey sends the local public key. The handshake calls it on the first
// ACK; it is exported for manual handshakes.
func (e *Engine) SendKey() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sendKey()
}

func (e *Engine) sendKey() error {
	if s := e.conn.State(); s != state.VersionSent {
		e.anomaly("key requested while %s", s)
		return fmt.Errorf("send key: %w: connection is %s", state.ErrInvalidTransition, s)
	}
	pkt, err := protocol.NewSendKey(e.self.Key)
	if err != nil {
		e.errorf("cannot build key packet: %v", err)
		return fmt.Errorf("send key: %w", err)
	}
	if err := e.send(pkt); err != nil {
		return err
	}
	_ = e.conn.Advance(state.KeySent)
	e.infof("key %s sent", protocol.BytesToHex(e.self.Key))
	return nil
}

// Knock asks the server to open a room with peer. An unregistered peer is
// added to the directory first. Any previous knock with peer is replaced.
func (e *Engine) Knock(peer *identity.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.dir.LookupKeyID(peer.KeyID()); err != nil {
		e.dir.Register(peer)
	}
	pkt, err := protocol.NewKeyIDPacket(protocol.CodeKnockSend, peer.KeyID())
	if err != nil {
		return fmt.Errorf("knock %s: %w", peer, err)
	}
	if err := e.send(pkt); err != nil {
		return err
	}
	e.knocks.Request(peer)
	e.infof("knocking on %s", peer)
	return nil
}

// AnswerKnock accepts or refuses a knock received from peer.
func (e *Engine) AnswerKnock(peer *identity.Identity, accept bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	knock, ok := e.knocks.Get(peer)
	if !ok || knock.State != state.ReceivedFromPeer {
		_, err := e.knocks.Answer(peer, accept)
		e.errorf("cannot answer %s: %v", peer, err)
		return err
	}
	pkt, err := protocol.NewKnockResponse(accept, peer.KeyID())
	if err != nil {
		return fmt.Errorf("answer %s: %w", peer, err)
	}
	if err := e.send(pkt); err != nil {
		return err
	}
	if _, err := e.knocks.Answer(peer, accept); err != nil {
		return err
	}
	if accept {
		e.successf("knock from %s accepted", peer)
	} else {
		e.infof("knock from %s refused", peer)
	}
	return nil
}

// SendMessage appends an unacknowledged message to the open room with peer
// and sends it.
func (e *Engine) SendMessage(peer *identity.Identity, payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms.ByPeer(peer)
	if !ok || room.Closed {
		e.errorf("cannot send to %s: %v", peer, ErrRoomNotReady)
		return fmt.Errorf("%w: %s", ErrRoomNotReady, peer)
	}
	pkt, err := protocol.NewMessageSend(room.ID.KeyID(), protocol.EncryptionNone, payload)
	if err != nil {
		return fmt.Errorf("message to %s: %w", peer, err)
	}
	if err := e.send(pkt); err != nil {
		return err
	}
	msg := state.NewSentMessage(e.self, peer, payload)
	room.Append(msg)
	e.messageAdded(room, msg)
	return nil
}

// CloseRoom closes the open room with peer.
func (e *Engine) CloseRoom(peer *identity.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	room, ok := e.rooms.ByPeer(peer)
	if !ok || room.Closed {
		e.errorf("cannot close room with %s: %v", peer, ErrRoomNotReady)
		return fmt.Errorf("%w: %s", ErrRoomNotReady, peer)
	}
	pkt, err := protocol.NewKeyIDPacket(protocol.CodeRoomClose, room.ID.KeyID())
	if err != nil {
		return fmt.Errorf("close room with %s: %w", peer, err)
	}
	if err := e.send(pkt); err != nil {
		return err
	}
	if _, err := e.rooms.Close(room.ID.KeyID()); err != nil {
		return err
	}
	e.infof("%s closed", room.ID)
	return nil
}
