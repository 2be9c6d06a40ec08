package packet

import (
	"bytes"
	"errors"
	"testing"
)

const testWriteSize = 128

func testChunkSize() int {
	return testWriteSize - maxHeaderOverhead
}

func TestSplitRoundTrip(t *testing.T) {
	chunk := testChunkSize()
	cases := []struct {
		name      string
		length    int
		wantTotal int
	}{
		{"empty", 0, 1},
		{"single byte", 1, 1},
		{"exact chunk", chunk, 1},
		{"chunk plus one", chunk + 1, 2},
		{"ten chunks", 10 * chunk, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := make([]byte, tc.length)
			for i := range body {
				body[i] = byte(i)
			}

			packets, err := Split(body, testWriteSize, 7)
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if len(packets) != tc.wantTotal {
				t.Fatalf("expected %d packets, got %d", tc.wantTotal, len(packets))
			}

			var rebuilt []byte
			for i, p := range packets {
				if p.MessageID != 7 {
					t.Fatalf("packet %d: message id %d", i, p.MessageID)
				}
				if p.Number != uint32(i+1) || p.Total != uint32(tc.wantTotal) {
					t.Fatalf("packet %d: ordinal %d of %d", i, p.Number, p.Total)
				}

				wire := Marshal(p)
				if len(wire) > testWriteSize {
					t.Fatalf("packet %d: marshaled size %d exceeds write size", i, len(wire))
				}
				decoded, err := Unmarshal(wire)
				if err != nil {
					t.Fatalf("packet %d: unmarshal: %v", i, err)
				}
				rebuilt = append(rebuilt, decoded.Payload...)
			}

			if !bytes.Equal(rebuilt, body) {
				t.Fatalf("reassembled body mismatch")
			}
		})
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	wire := Marshal(Packet{MessageID: 1, Number: 1, Total: 1, Payload: []byte("hello")})
	for cut := 1; cut < 4; cut++ {
		_, err := Unmarshal(wire[:len(wire)-cut])
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("cut %d: expected ErrTruncated, got %v", cut, err)
		}
	}
}

func TestUnmarshalOrdinalViolation(t *testing.T) {
	cases := []struct {
		name string
		p    Packet
	}{
		{"zero number", Packet{MessageID: 1, Number: 0, Total: 1}},
		{"zero total", Packet{MessageID: 1, Number: 1, Total: 0}},
		{"number beyond total", Packet{MessageID: 1, Number: 3, Total: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unmarshal(Marshal(tc.p))
			if !errors.Is(err, ErrOrdinal) {
				t.Fatalf("expected ErrOrdinal, got %v", err)
			}
		})
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xff, 0xff, 0xff})
	if err == nil {
		t.Fatalf("expected decode failure")
	}
}

func TestSplitWriteSizeTooSmall(t *testing.T) {
	_, err := Split([]byte("payload"), maxHeaderOverhead, 1)
	if !errors.Is(err, ErrWriteSizeTooSmall) {
		t.Fatalf("expected ErrWriteSizeTooSmall, got %v", err)
	}
}

func TestSplitEmptyBodyProducesOnePacket(t *testing.T) {
	packets, err := Split(nil, testWriteSize, 3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(packets))
	}
	if packets[0].Number != 1 || packets[0].Total != 1 {
		t.Fatalf("unexpected ordinal %d of %d", packets[0].Number, packets[0].Total)
	}
	if len(packets[0].Payload) != 0 {
		t.Fatalf("expected empty payload")
	}
}
