package stream

// Operation classifies one application-level message.
type Operation uint32

const (
	OpData Operation = iota
	OpControl
	OpSync
)

func (o Operation) String() string {
	switch o {
	case OpData:
		return "data"
	case OpControl:
		return "control"
	case OpSync:
		return "sync"
	default:
		return "unknown"
	}
}

// Message is one application-level unit before chunking and after
// reassembly. Encrypted requests payload encryption on send and reports
// it on receive; a send with Encrypted set fails when no key has been
// installed on the stream.
type Message struct {
	Payload   []byte
	Operation Operation
	Encrypted bool
	Recipient string
}
