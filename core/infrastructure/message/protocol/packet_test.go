package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	body := []byte(`{"route":"game.play.place"}`)
	frame, err := Wrap(Data, body)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}
	if len(frame) != HeaderLen+len(body) {
		t.Fatalf("frame length expected %d, got %d", HeaderLen+len(body), len(frame))
	}

	packet, err := Unwrap(frame)
	if err != nil {
		t.Fatalf("unwrap failed: %v", err)
	}
	if packet.Type != Data || packet.Length != len(body) {
		t.Fatalf("packet header expected (Data, %d), got (%v, %d)", len(body), packet.Type, packet.Length)
	}
	if !bytes.Equal(packet.Body, body) {
		t.Fatalf("body mismatch: %s", packet.Body)
	}
}

func TestWrapRejectsBadType(t *testing.T) {
	if _, err := Wrap(None, nil); !errors.Is(err, ErrWrongPacketType) {
		t.Fatalf("expected ErrWrongPacketType, got %v", err)
	}
	if _, err := Wrap(PackageType(0x08), nil); !errors.Is(err, ErrWrongPacketType) {
		t.Fatalf("expected ErrWrongPacketType, got %v", err)
	}
}

func TestUnwrapRejectsBadFrames(t *testing.T) {
	if _, err := Unwrap([]byte{0x04, 0x00}); !errors.Is(err, ErrWrongPacketType) {
		t.Fatalf("short frame expected ErrWrongPacketType, got %v", err)
	}
	if _, err := Unwrap([]byte{0x00, 0x00, 0x00, 0x00}); !errors.Is(err, ErrWrongPacketType) {
		t.Fatalf("bad type expected ErrWrongPacketType, got %v", err)
	}
	// 声明长度超过实际 body
	if _, err := Unwrap([]byte{0x03, 0x00, 0x00, 0x05}); !errors.Is(err, ErrPacketSizeExceed) {
		t.Fatalf("truncated frame expected ErrPacketSizeExceed, got %v", err)
	}
}

func TestLengthHeaderBigEndian(t *testing.T) {
	body := make([]byte, 0x0102)
	frame, err := Wrap(Heartbeat, body)
	if err != nil {
		t.Fatalf("wrap failed: %v", err)
	}
	if frame[1] != 0x00 || frame[2] != 0x01 || frame[3] != 0x02 {
		t.Fatalf("length header expected 00 01 02, got %02x %02x %02x", frame[1], frame[2], frame[3])
	}
}

func TestMessageEncodeDecode(t *testing.T) {
	raw, _ := json.Marshal(map[string]int{"tileIndex": 3})
	msg := &Message{Type: Request, ID: 7, Route: "game.play.place", Data: raw}

	data, err := MessageEncode(msg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := MessageDecode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Type != Request || decoded.ID != 7 || decoded.Route != "game.play.place" {
		t.Fatalf("decoded header mismatch: %+v", decoded)
	}
	if !bytes.Equal(decoded.Data, raw) {
		t.Fatalf("decoded data mismatch: %s", decoded.Data)
	}
}

func TestParseBodyBadJSON(t *testing.T) {
	packet := &Packet{Type: Data, Body: []byte("not json")}
	msg := packet.ParseBody()
	if msg.Route != "" || msg.Type != Request || msg.Data != nil {
		t.Fatalf("bad body should parse to an empty message, got %+v", msg)
	}
}
