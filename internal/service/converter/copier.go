package converter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/oshokin/tib2xxu/internal/domain/xxu"
)

// copier streams the payload in fixed-size chunks.
type copier struct {
	// buf is reused for every chunk; its length is the chunk size.
	buf []byte
	// inputName and outputName label I/O errors.
	inputName  string
	outputName string
}

func newCopier(chunkSize int, inputName, outputName string) *copier {
	return &copier{
		buf:        make([]byte, chunkSize),
		inputName:  inputName,
		outputName: outputName,
	}
}

// Copy moves every remaining byte of src to dst unchanged and returns the
// number of bytes copied. Short writes are failures. The context is checked
// between chunks.
func (c *copier) Copy(ctx context.Context, dst io.Writer, src io.Reader) (uint64, error) {
	var total uint64

	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("copy interrupted: %w", err)
		}

		n, readErr := src.Read(c.buf)
		if n > 0 {
			written, err := dst.Write(c.buf[:n])
			if err != nil {
				return total, xxu.NewError(xxu.ErrOutputWrite, c.outputName, err)
			}

			if written != n {
				return total, xxu.NewError(xxu.ErrOutputWrite, c.outputName, io.ErrShortWrite)
			}

			total += uint64(n)
		}

		if errors.Is(readErr, io.EOF) {
			return total, nil
		}

		if readErr != nil {
			return total, xxu.NewError(xxu.ErrInputRead, c.inputName, readErr)
		}
	}
}
