package stream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mvrik/linkstream/internal/protocol/packet"
)

func TestAssemblerSinglePacket(t *testing.T) {
	var a assembler
	body, done, err := a.feed(packet.Packet{MessageID: 1, Number: 1, Total: 1, Payload: []byte("whole")})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if !done {
		t.Fatalf("expected completion")
	}
	if !bytes.Equal(body, []byte("whole")) {
		t.Fatalf("body mismatch: %q", body)
	}
}

func TestAssemblerMultiPacketCompletesOnce(t *testing.T) {
	var a assembler
	parts := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for i, part := range parts {
		body, done, err := a.feed(packet.Packet{MessageID: 9, Number: uint32(i + 1), Total: 3, Payload: part})
		if err != nil {
			t.Fatalf("packet %d: %v", i+1, err)
		}
		if i < len(parts)-1 {
			if done {
				t.Fatalf("packet %d: premature completion", i+1)
			}
			continue
		}
		if !done {
			t.Fatalf("expected completion on last packet")
		}
		if !bytes.Equal(body, []byte("onetwothree")) {
			t.Fatalf("body mismatch: %q", body)
		}
	}

	// State must be clear for the next message.
	body, done, err := a.feed(packet.Packet{MessageID: 10, Number: 1, Total: 1, Payload: []byte("next")})
	if err != nil || !done || !bytes.Equal(body, []byte("next")) {
		t.Fatalf("assembler not reusable after completion: %v", err)
	}
}

func TestAssemblerForeignMessageID(t *testing.T) {
	var a assembler
	if _, _, err := a.feed(packet.Packet{MessageID: 1, Number: 1, Total: 2, Payload: []byte("a")}); err != nil {
		t.Fatalf("feed: %v", err)
	}
	_, done, err := a.feed(packet.Packet{MessageID: 2, Number: 2, Total: 2, Payload: []byte("b")})
	if !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
	if done {
		t.Fatalf("sequencing error must not complete a message")
	}
}

func TestAssemblerOutOfOrder(t *testing.T) {
	var a assembler
	if _, _, err := a.feed(packet.Packet{MessageID: 1, Number: 1, Total: 3, Payload: []byte("a")}); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if _, _, err := a.feed(packet.Packet{MessageID: 1, Number: 3, Total: 3, Payload: []byte("c")}); !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
}

func TestAssemblerFirstPacketNotOne(t *testing.T) {
	var a assembler
	if _, _, err := a.feed(packet.Packet{MessageID: 1, Number: 2, Total: 3, Payload: []byte("b")}); !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
}

func TestAssemblerTotalChangesMidSequence(t *testing.T) {
	var a assembler
	if _, _, err := a.feed(packet.Packet{MessageID: 1, Number: 1, Total: 3, Payload: []byte("a")}); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if _, _, err := a.feed(packet.Packet{MessageID: 1, Number: 2, Total: 4, Payload: []byte("b")}); !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
}

func TestAssemblerDiscardsPartialStateOnError(t *testing.T) {
	var a assembler
	if _, _, err := a.feed(packet.Packet{MessageID: 1, Number: 1, Total: 2, Payload: []byte("partial")}); err != nil {
		t.Fatalf("feed: %v", err)
	}
	if _, _, err := a.feed(packet.Packet{MessageID: 7, Number: 1, Total: 1, Payload: []byte("x")}); !errors.Is(err, ErrSequence) {
		t.Fatalf("expected ErrSequence, got %v", err)
	}
	if a.active || a.buf.Len() != 0 {
		t.Fatalf("partial state not discarded")
	}
}
