package converter

import (
	"io"

	"github.com/oshokin/tib2xxu/internal/domain/xxu"
)

// finalizer places the header around the streamed payload.
type finalizer interface {
	// Begin leaves the sink positioned at the first payload byte.
	Begin(sink Sink) error
	// Commit stores the final header fields once the payload is written.
	Commit(sink Sink, device xxu.DeviceCode, size uint64) error
}

// newFinalizer returns the finalizer implementing profile.
func newFinalizer(profile xxu.Profile, clock Clock, outputName string) finalizer {
	if profile == xxu.ProfileRewrite {
		return &rewriteFinalizer{
			clock:      clock,
			outputName: outputName,
		}
	}

	return &patchFinalizer{outputName: outputName}
}

// patchFinalizer writes the undated template up front and patches the device
// and size bytes in place afterwards.
type patchFinalizer struct {
	outputName string
}

func (f *patchFinalizer) Begin(sink Sink) error {
	template, err := xxu.NewHeader().MarshalBinary()
	if err != nil {
		return xxu.NewError(xxu.ErrOutputWrite, f.outputName, err)
	}

	return writeAt(sink, xxu.OffsetSignature, template, f.outputName)
}

func (f *patchFinalizer) Commit(sink Sink, device xxu.DeviceCode, size uint64) error {
	if err := writeAt(sink, xxu.OffsetDevice, []byte{byte(device)}, f.outputName); err != nil {
		return err
	}

	return writeAt(sink, xxu.OffsetPayloadSize, xxu.PutPayloadSize(size), f.outputName)
}

// rewriteFinalizer skips the header area and writes the whole header, dated
// at commit time, once the payload is in place.
type rewriteFinalizer struct {
	clock      Clock
	outputName string
}

func (f *rewriteFinalizer) Begin(sink Sink) error {
	if _, err := sink.Seek(xxu.HeaderSize, io.SeekStart); err != nil {
		return xxu.NewError(xxu.ErrOutputSeek, f.outputName, err)
	}

	return nil
}

func (f *rewriteFinalizer) Commit(sink Sink, device xxu.DeviceCode, size uint64) error {
	header := xxu.NewHeader()
	header.Date = xxu.DateOf(f.clock.Now())
	header.Device = device
	header.PayloadSize = uint32(size) //nolint:gosec // The format stores 32 bits.

	data, err := header.MarshalBinary()
	if err != nil {
		return xxu.NewError(xxu.ErrOutputWrite, f.outputName, err)
	}

	return writeAt(sink, xxu.OffsetSignature, data, f.outputName)
}

// writeAt seeks to offset and writes data in full.
func writeAt(sink Sink, offset int64, data []byte, outputName string) error {
	if _, err := sink.Seek(offset, io.SeekStart); err != nil {
		return xxu.NewError(xxu.ErrOutputSeek, outputName, err)
	}

	n, err := sink.Write(data)
	if err != nil {
		return xxu.NewError(xxu.ErrOutputWrite, outputName, err)
	}

	if n != len(data) {
		return xxu.NewError(xxu.ErrOutputWrite, outputName, io.ErrShortWrite)
	}

	return nil
}
