package inspector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/tib2xxu/internal/domain/xxu"
	"github.com/oshokin/tib2xxu/internal/logger"
)

// Options contains inputs for the inspector entry point.
type Options struct {
	// Path is the package file to inspect.
	Path string
	// Output receives the YAML report. Nil means standard output.
	Output io.Writer
	// FS is the filesystem Path lives on. Nil means the OS filesystem.
	FS afero.Fs
}

// Report is the decoded view of a package header.
type Report struct {
	Path              string   `yaml:"path"`
	Version           string   `yaml:"version"`
	Date              string   `yaml:"date"`
	DeviceCode        string   `yaml:"device_code"`
	DeviceTypes       []string `yaml:"device_types"`
	HardwareID        uint16   `yaml:"hardware_id"`
	PayloadSize       uint32   `yaml:"payload_size"`
	ActualPayloadSize int64    `yaml:"actual_payload_size"`
	SizeConsistent    bool     `yaml:"size_consistent"`
}

// errTruncated is returned when the file is shorter than a header.
var errTruncated = errors.New("file is shorter than a package header")

// Run decodes the header of opts.Path and writes the report to opts.Output.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "inspector")

	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	report, err := inspect(fs, opts.Path)
	if err != nil {
		return nil, err
	}

	if !report.SizeConsistent {
		logger.WarnKV(ctx, "Declared payload size does not match the file",
			"path", report.Path,
			"declared", report.PayloadSize,
			"actual", report.ActualPayloadSize)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	if _, err = out.Write(data); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	return report, nil
}

// inspect reads and decodes the header of path.
func inspect(fs afero.Fs, path string) (*Report, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, xxu.NewError(xxu.ErrInputOpen, path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, xxu.NewError(xxu.ErrInputRead, path, err)
	}

	buf := make([]byte, xxu.HeaderSize)
	if _, err = io.ReadFull(file, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, xxu.NewError(xxu.ErrInvalidHeader, path, errTruncated)
		}

		return nil, xxu.NewError(xxu.ErrInputRead, path, err)
	}

	header, err := xxu.DecodeHeader(buf)
	if err != nil {
		return nil, xxu.NewError(xxu.ErrInvalidHeader, path, err)
	}

	actual := info.Size() - xxu.HeaderSize

	return &Report{
		Path:              path,
		Version:           fmt.Sprintf("%d.%d", header.VersionMajor, header.VersionMinor),
		Date:              header.Date.String(),
		DeviceCode:        header.Device.String(),
		DeviceTypes:       header.Device.Tokens(),
		HardwareID:        header.HardwareID,
		PayloadSize:       header.PayloadSize,
		ActualPayloadSize: actual,
		SizeConsistent:    uint32(actual) == header.PayloadSize, //nolint:gosec // Compared modulo 2^32 like the field.
	}, nil
}
