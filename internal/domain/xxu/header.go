package xxu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Header layout. All offsets are from the start of the package file.
const (
	// HeaderSize is the fixed length of the package header.
	HeaderSize = 74

	OffsetSignature   = 0x00
	OffsetVersion     = 0x08
	OffsetFlags       = 0x0A
	OffsetObjectType  = 0x0B
	OffsetDate        = 0x0C
	OffsetNameLength  = 0x10
	OffsetName        = 0x11
	OffsetDevice      = 0x30
	OffsetDataKind    = 0x31
	OffsetHardwareID  = 0x48
	OffsetPayloadSize = 0x4A

	// Signature opens every package.
	Signature = "**TIFL**"
	// Name is the fixed object name of a boot-code package.
	Name = "basecode"
	// DataKindOS marks the payload as an operating system image.
	DataKindOS = 0x23

	// VersionMajor and VersionMinor form the format version 3.0.
	VersionMajor = 3
	VersionMinor = 0

	// MaxPayloadSize is the largest size the 32-bit size field represents.
	MaxPayloadSize = math.MaxUint32
)

// Date is the creation date stored as four BCD bytes.
// The zero value encodes as four zero bytes.
type Date struct {
	Month   uint8
	Day     uint8
	Century uint8
	// Year is the year within the century (0-99).
	Year uint8
}

// DateOf returns the header date for t in t's location.
func DateOf(t time.Time) Date {
	year := t.Year()

	return Date{
		Month:   uint8(t.Month()),
		Day:     uint8(t.Day()),
		Century: uint8(year / 100), //nolint:gosec // Four-digit years fit.
		Year:    uint8(year % 100), //nolint:gosec // Always below 100.
	}
}

// IsZero reports whether no date is set.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String renders the date as YYYY-MM-DD, or "unset" for the zero value.
func (d Date) String() string {
	if d.IsZero() {
		return "unset"
	}

	return fmt.Sprintf("%02d%02d-%02d-%02d", d.Century, d.Year, d.Month, d.Day)
}

// Header holds the variable fields of a package header. Everything else in
// the 74-byte block is constant and produced by MarshalBinary.
type Header struct {
	VersionMajor uint8
	VersionMinor uint8
	Date         Date
	Device       DeviceCode
	HardwareID   uint16
	// PayloadSize is the payload length truncated to 32 bits.
	PayloadSize uint32
}

// NewHeader returns the template header: format version 3.0 and every
// computed field still zero.
func NewHeader() *Header {
	return &Header{
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
	}
}

// MarshalBinary encodes the header into its 74-byte wire form.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)

	copy(buf[OffsetSignature:], Signature)

	if err := putBCD(buf[OffsetVersion:], h.VersionMajor, h.VersionMinor); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}

	err := putBCD(buf[OffsetDate:], h.Date.Month, h.Date.Day, h.Date.Century, h.Date.Year)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}

	buf[OffsetNameLength] = byte(len(Name))
	copy(buf[OffsetName:], Name)
	buf[OffsetDevice] = byte(h.Device)
	buf[OffsetDataKind] = DataKindOS
	binary.LittleEndian.PutUint16(buf[OffsetHardwareID:], h.HardwareID)
	binary.LittleEndian.PutUint32(buf[OffsetPayloadSize:], h.PayloadSize)

	return buf, nil
}

// DecodeHeader parses a package header. It checks the signature, name and
// data kind and rejects malformed BCD bytes.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidHeader, len(data), HeaderSize)
	}

	if !bytes.Equal(data[OffsetSignature:OffsetSignature+len(Signature)], []byte(Signature)) {
		return nil, fmt.Errorf("%w: bad signature %q", ErrInvalidHeader, data[OffsetSignature:OffsetSignature+len(Signature)])
	}

	nameLen := int(data[OffsetNameLength])
	if nameLen != len(Name) || string(data[OffsetName:OffsetName+nameLen]) != Name {
		return nil, fmt.Errorf("%w: unexpected object name", ErrInvalidHeader)
	}

	if data[OffsetDataKind] != DataKindOS {
		return nil, fmt.Errorf("%w: data kind 0x%02X is not an OS image", ErrInvalidHeader, data[OffsetDataKind])
	}

	var (
		h   Header
		err error
	)

	h.VersionMajor, h.VersionMinor, err = getBCD2(data[OffsetVersion:])
	if err != nil {
		return nil, fmt.Errorf("%w: version: %w", ErrInvalidHeader, err)
	}

	h.Date.Month, h.Date.Day, err = getBCD2(data[OffsetDate:])
	if err != nil {
		return nil, fmt.Errorf("%w: date: %w", ErrInvalidHeader, err)
	}

	h.Date.Century, h.Date.Year, err = getBCD2(data[OffsetDate+2:])
	if err != nil {
		return nil, fmt.Errorf("%w: date: %w", ErrInvalidHeader, err)
	}

	h.Device = DeviceCode(data[OffsetDevice])
	h.HardwareID = binary.LittleEndian.Uint16(data[OffsetHardwareID:])
	h.PayloadSize = binary.LittleEndian.Uint32(data[OffsetPayloadSize:])

	return &h, nil
}

// PutPayloadSize encodes size (truncated to 32 bits) as the size field bytes.
func PutPayloadSize(size uint64) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(size)) //nolint:gosec // The format stores 32 bits.

	return buf
}

// EncodeBCD packs a value in 0-99 as (tens<<4)|ones.
func EncodeBCD(v uint8) (byte, error) {
	if v > 99 {
		return 0, fmt.Errorf("value %d does not fit in one BCD byte", v)
	}

	return (v/10)<<4 | v%10, nil
}

// DecodeBCD unpacks one BCD byte.
func DecodeBCD(b byte) (uint8, error) {
	tens, ones := b>>4, b&0x0F
	if tens > 9 || ones > 9 {
		return 0, fmt.Errorf("byte 0x%02X is not valid BCD", b)
	}

	return tens*10 + ones, nil
}

func putBCD(dst []byte, values ...uint8) error {
	for i, v := range values {
		b, err := EncodeBCD(v)
		if err != nil {
			return err
		}

		dst[i] = b
	}

	return nil
}

func getBCD2(src []byte) (uint8, uint8, error) {
	first, err := DecodeBCD(src[0])
	if err != nil {
		return 0, 0, err
	}

	second, err := DecodeBCD(src[1])
	if err != nil {
		return 0, 0, err
	}

	return first, second, nil
}
