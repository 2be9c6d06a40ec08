package packet

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the message envelope.
const (
	fieldOperation    protowire.Number = 1
	fieldEncrypted    protowire.Number = 2
	fieldOriginalSize protowire.Number = 3
	fieldRecipient    protowire.Number = 4
	fieldBody         protowire.Number = 5
)

// Envelope is the reassembled message body: the application payload plus
// the metadata the receive side needs to undo encryption and compression.
// OriginalSize == 0 means the body was not compressed.
type Envelope struct {
	Operation    uint32
	Encrypted    bool
	OriginalSize uint32
	Recipient    string
	Body         []byte
}

// MarshalEnvelope encodes e in the protobuf wire format.
func MarshalEnvelope(e Envelope) []byte {
	b := make([]byte, 0, 32+len(e.Recipient)+len(e.Body))
	b = protowire.AppendTag(b, fieldOperation, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(e.Operation))
	if e.Encrypted {
		b = protowire.AppendTag(b, fieldEncrypted, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if e.OriginalSize > 0 {
		b = protowire.AppendTag(b, fieldOriginalSize, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.OriginalSize))
	}
	if e.Recipient != "" {
		b = protowire.AppendTag(b, fieldRecipient, protowire.BytesType)
		b = protowire.AppendString(b, e.Recipient)
	}
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendBytes(b, e.Body)
	return b
}

// UnmarshalEnvelope decodes one message envelope.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Envelope{}, fmt.Errorf("%w: envelope tag", ErrTruncated)
		}
		data = data[n:]

		switch {
		case typ == protowire.VarintType && (num == fieldOperation || num == fieldEncrypted || num == fieldOriginalSize):
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: envelope field %d", ErrTruncated, num)
			}
			data = data[n:]
			switch num {
			case fieldOperation:
				if v > math.MaxUint32 {
					return Envelope{}, fmt.Errorf("%w: operation overflows uint32", ErrBadField)
				}
				e.Operation = uint32(v)
			case fieldEncrypted:
				e.Encrypted = v != 0
			case fieldOriginalSize:
				if v > math.MaxUint32 {
					return Envelope{}, fmt.Errorf("%w: original size overflows uint32", ErrBadField)
				}
				e.OriginalSize = uint32(v)
			}
		case typ == protowire.BytesType && (num == fieldRecipient || num == fieldBody):
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: envelope field %d", ErrTruncated, num)
			}
			data = data[n:]
			if num == fieldRecipient {
				e.Recipient = string(v)
			} else {
				e.Body = append([]byte(nil), v...)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: envelope field %d", ErrTruncated, num)
			}
			data = data[n:]
		}
	}
	return e, nil
}
