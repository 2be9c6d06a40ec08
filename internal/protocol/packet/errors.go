package packet

import "errors"

var (
	ErrTruncated         = errors.New("packet: truncated record")
	ErrBadField          = errors.New("packet: malformed field")
	ErrOrdinal           = errors.New("packet: ordinal out of range")
	ErrWriteSizeTooSmall = errors.New("packet: max write size too small")
	ErrTooManyPackets    = errors.New("packet: body needs too many packets")
)
