package udpsession

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"dolphinretro/gamefile"
)

const (
	header          = uint16(25887)
	protocolVersion = byte(0x03)

	// maxPacket is the largest datagram read or written.
	maxPacket = 1500
)

var ErrBadPacket = errors.New("udpsession: bad packet")

type Kind byte

const (
	KindHello = Kind(iota + 1)
	KindWelcome
	KindChangeGame
	KindStartGame
	KindStopGame
	KindChat
	KindBye
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindWelcome:
		return "welcome"
	case KindChangeGame:
		return "change_game"
	case KindStartGame:
		return "start_game"
	case KindStopGame:
		return "stop_game"
	case KindChat:
		return "chat"
	case KindBye:
		return "bye"
	}
	return "unknown"
}

func makePacket(kind Kind) (buf *bytes.Buffer) {
	buf = &bytes.Buffer{}
	hdr := header
	_ = binary.Write(buf, binary.LittleEndian, &hdr)
	buf.WriteByte(protocolVersion)
	buf.WriteByte(byte(kind))
	return
}

func parsePacket(msg []byte) (kind Kind, r *bytes.Reader, err error) {
	var hdr uint16

	r = bytes.NewReader(msg)
	if err = binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		err = fmt.Errorf("%w: %v", ErrBadPacket, err)
		return
	}
	if hdr != header {
		err = fmt.Errorf("%w: header %d", ErrBadPacket, hdr)
		return
	}

	var version byte
	if version, err = r.ReadByte(); err != nil {
		err = fmt.Errorf("%w: %v", ErrBadPacket, err)
		return
	}
	if version != protocolVersion {
		err = fmt.Errorf("%w: protocol version %d", ErrBadPacket, version)
		return
	}

	var k byte
	if k, err = r.ReadByte(); err != nil {
		err = fmt.Errorf("%w: %v", ErrBadPacket, err)
		return
	}
	kind = Kind(k)
	return
}

func writeString(buf *bytes.Buffer, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err = io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// game is the session's selected game as sent over the wire.
type game struct {
	ID   gamefile.SyncIdentifier
	Name string
}

func (g game) isZero() bool {
	return g.ID.IsZero() && g.Name == ""
}

func writeGame(buf *bytes.Buffer, g game) {
	writeString(buf, g.ID.GameID)
	buf.WriteByte(g.ID.Revision)
	buf.WriteByte(g.ID.DiscNumber)
	buf.Write(g.ID.Digest[:])
	writeString(buf, g.Name)
}

func readGame(r *bytes.Reader) (g game, err error) {
	if g.ID.GameID, err = readString(r); err != nil {
		return
	}
	if g.ID.Revision, err = r.ReadByte(); err != nil {
		return
	}
	if g.ID.DiscNumber, err = r.ReadByte(); err != nil {
		return
	}
	var digest [sha1.Size]byte
	if _, err = io.ReadFull(r, digest[:]); err != nil {
		return
	}
	g.ID.Digest = digest
	g.Name, err = readString(r)
	return
}

// welcome is the server's reply to hello.
type welcome struct {
	BufferSize  uint32
	NetworkMode string
	Game        game
}

func writeWelcome(buf *bytes.Buffer, w welcome) {
	_ = binary.Write(buf, binary.LittleEndian, &w.BufferSize)
	writeString(buf, w.NetworkMode)
	if w.Game.isZero() {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	writeGame(buf, w.Game)
}

func readWelcome(r *bytes.Reader) (w welcome, err error) {
	if err = binary.Read(r, binary.LittleEndian, &w.BufferSize); err != nil {
		return
	}
	if w.NetworkMode, err = readString(r); err != nil {
		return
	}
	var hasGame byte
	if hasGame, err = r.ReadByte(); err != nil {
		return
	}
	if hasGame != 0 {
		w.Game, err = readGame(r)
	}
	return
}
