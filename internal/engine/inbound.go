package engine

import (
	"errors"

	"github.com/1ureka/dioxane/internal/protocol"
	"github.com/1ureka/dioxane/internal/state"
	"github.com/1ureka/dioxane/internal/util"
)

// Receive handles one inbound buffer holding exactly one framed packet.
// Malformed buffers are reported and ignored.
func (e *Engine) Receive(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pkt, err := protocol.Decode(data)
	if err != nil {
		util.Stats.AddDecodeError()
		e.errorf("rejected packet %s: %v", protocol.BytesToHex(data), err)
		return
	}
	e.debugf("received %s", pkt)

	switch pkt.Code {
	case protocol.CodeAck:
		e.handleAck()
	case protocol.CodeKnockReceive:
		e.handleKnockReceive(pkt)
	case protocol.CodeKnockResponse:
		e.handleKnockResponse(pkt)
	case protocol.CodeRoomNew:
		e.handleRoomNew(pkt)
	case protocol.CodeMessageSend:
		e.handleMessageSend(pkt)
	case protocol.CodeRoomClose:
		e.handleRoomClose(pkt)
	default:
		e.anomaly("cannot interpret %s yet", pkt.Code)
	}
}

// handleAck attributes an ACK to the oldest pending expectation. ACKs carry
// no correlation id, so the expectations are scanned in a fixed order and
// the first match takes it: handshake, then knocks in directory order, then
// sent messages in room and append order. A lost ACK shifts every later one.
func (e *Engine) handleAck() {
	switch e.conn.State() {
	case state.VersionSent:
		e.sendKey()
		return
	case state.KeySent:
		if err := e.conn.Advance(state.Connected); err == nil {
			e.successf("connected to server as %s", e.self)
		}
		return
	}

	for _, peer := range e.dir.All() {
		knock, ok := e.knocks.Get(peer)
		if !ok || knock.State != state.Requesting {
			continue
		}
		if err := e.knocks.MarkAcked(knock); err == nil {
			e.infof("knock to %s delivered, waiting for an answer", peer)
		}
		return
	}

	if room, msg, ok := e.rooms.FirstUnacked(); ok {
		msg.Acknowledged = true
		e.debugf("message %s in %s acknowledged", msg.ID, room.ID)
		e.messageAcknowledged(room, msg)
		return
	}

	e.anomaly("unexpected ACK")
}

func (e *Engine) handleKnockReceive(pkt *protocol.Packet) {
	peer, created := e.resolve(pkt.Option(1))
	if created {
		e.debugf("registered unknown peer %s", peer.Hex())
	}
	e.knocks.Receive(peer)
	e.infof("%s is knocking, answer with accept or refuse", peer)
}

func (e *Engine) handleKnockResponse(pkt *protocol.Packet) {
	keyID := pkt.Option(2)
	peer, err := e.dir.LookupKeyID(keyID)
	if err != nil {
		e.anomaly("knock response from %s: %v", protocol.BytesToHex(keyID), err)
		return
	}

	accepted := pkt.Option(0)[0] == protocol.ResponseAccepted
	knock, recovered, err := e.knocks.Respond(peer, accepted)
	if err != nil {
		e.anomaly("knock response from %s: %v", peer, err)
		return
	}
	if recovered {
		e.debugf("ACK for knock to %s was missed, taking the response anyway", peer)
	}
	if knock.State == state.Accepted {
		e.successf("%s accepted the knock", peer)
	} else {
		e.infof("%s refused the knock", peer)
	}
}

func (e *Engine) handleRoomNew(pkt *protocol.Packet) {
	roomID, keyID := pkt.Option(1), pkt.Option(3)
	peer, created := e.resolve(keyID)
	if created {
		e.debugf("registered unknown peer %s", peer.Hex())
	}

	knock, ok := e.knocks.Get(peer)
	switch {
	case !ok:
		e.anomaly("room with %s opened without a knock", peer)
	case knock.State == state.Refused:
		e.anomaly("room with %s opened although the knock was refused", peer)
	}

	room := e.rooms.Open(peer, roomID)
	e.successf("%s opened (%s)", room.ID, room.ID.Hex())
}

func (e *Engine) handleMessageSend(pkt *protocol.Packet) {
	roomID := pkt.Option(1)
	if enc := pkt.Option(2)[0]; enc != protocol.EncryptionNone {
		e.debugf("message encryption 0x%02x is not supported, keeping raw payload", enc)
	}

	room, msg, err := e.rooms.Deliver(roomID, pkt.Option(3))
	switch {
	case errors.Is(err, state.ErrUnknownRoom):
		e.anomaly("message dropped: %v", err)
		return
	case err != nil:
		e.anomaly("message stored anyway: %v", err)
	}
	e.infof("%s: %s", room.Peer, msg.Payload)
	e.messageAdded(room, msg)
}

func (e *Engine) handleRoomClose(pkt *protocol.Packet) {
	room, err := e.rooms.Close(pkt.Option(1))
	if err != nil {
		e.anomaly("room close: %v", err)
		return
	}
	e.infof("%s closed", room.ID)
}
