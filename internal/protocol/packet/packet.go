package packet

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the packet record.
const (
	fieldMessageID protowire.Number = 1
	fieldNumber    protowire.Number = 2
	fieldTotal     protowire.Number = 3
	fieldPayload   protowire.Number = 4
)

// maxHeaderOverhead is the worst-case non-payload size of one marshaled
// packet: three varint fields (1-byte tag + up to 5 bytes each) plus the
// payload tag and its length varint.
const maxHeaderOverhead = 3*(1+5) + 1 + 5

// MinWriteSize is the smallest usable link write size: one header plus at
// least one payload byte.
const MinWriteSize = maxHeaderOverhead + 1

// Packet is one wire-framed chunk of a larger message. Number is 1-based
// and Total is constant across all packets sharing a MessageID.
type Packet struct {
	MessageID uint32
	Number    uint32
	Total     uint32
	Payload   []byte
}

// Marshal encodes p in the protobuf wire format.
func Marshal(p Packet) []byte {
	b := make([]byte, 0, maxHeaderOverhead+len(p.Payload))
	b = protowire.AppendTag(b, fieldMessageID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.MessageID))
	b = protowire.AppendTag(b, fieldNumber, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Number))
	b = protowire.AppendTag(b, fieldTotal, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Total))
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, p.Payload)
	return b
}

// Unmarshal decodes one packet record. Unknown fields are skipped for
// forward compatibility; truncated or malformed records fail decoding
// and are never retried.
func Unmarshal(data []byte) (Packet, error) {
	var p Packet
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Packet{}, fmt.Errorf("%w: tag", ErrTruncated)
		}
		data = data[n:]

		switch {
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Packet{}, fmt.Errorf("%w: payload", ErrTruncated)
			}
			p.Payload = append([]byte(nil), v...)
			data = data[n:]
		case typ == protowire.VarintType && (num == fieldMessageID || num == fieldNumber || num == fieldTotal):
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Packet{}, fmt.Errorf("%w: field %d", ErrTruncated, num)
			}
			if v > math.MaxUint32 {
				return Packet{}, fmt.Errorf("%w: field %d overflows uint32", ErrBadField, num)
			}
			data = data[n:]
			switch num {
			case fieldMessageID:
				p.MessageID = uint32(v)
			case fieldNumber:
				p.Number = uint32(v)
			case fieldTotal:
				p.Total = uint32(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Packet{}, fmt.Errorf("%w: field %d", ErrTruncated, num)
			}
			data = data[n:]
		}
	}

	if p.Total < 1 || p.Number < 1 || p.Number > p.Total {
		return Packet{}, fmt.Errorf("%w: packet %d of %d", ErrOrdinal, p.Number, p.Total)
	}
	return p, nil
}

// Split chunks a message body into packets whose marshaled size never
// exceeds maxWriteSize. An empty body still produces one packet so the
// receiver observes the message.
func Split(body []byte, maxWriteSize int, messageID uint32) ([]Packet, error) {
	chunk := maxWriteSize - maxHeaderOverhead
	if chunk < 1 {
		return nil, fmt.Errorf("%w: %d", ErrWriteSizeTooSmall, maxWriteSize)
	}

	total := (len(body) + chunk - 1) / chunk
	if total < 1 {
		total = 1
	}
	if uint64(total) > math.MaxUint32 {
		return nil, ErrTooManyPackets
	}

	packets := make([]Packet, 0, total)
	for i := 0; i < total; i++ {
		lo := i * chunk
		hi := lo + chunk
		if hi > len(body) {
			hi = len(body)
		}
		packets = append(packets, Packet{
			MessageID: messageID,
			Number:    uint32(i + 1),
			Total:     uint32(total),
			Payload:   body[lo:hi],
		})
	}
	return packets, nil
}
