package converter

import (
	"context"
	"errors"

	"github.com/spf13/afero"

	"github.com/oshokin/tib2xxu/internal/config"
	"github.com/oshokin/tib2xxu/internal/domain/xxu"
	"github.com/oshokin/tib2xxu/internal/logger"
)

// Options contains inputs for the converter entry point.
type Options struct {
	// InputPath is the raw boot-code image (.tib).
	InputPath string
	// OutputPath is the package to create; its extension names the device
	// unless DeviceType is set.
	OutputPath string
	// DeviceType overrides the extension-derived device token.
	DeviceType string
	// DeviceTypeSet marks DeviceType as explicitly given. A non-empty
	// DeviceType is always treated as explicit.
	DeviceTypeSet bool
	// Profile selects the header finalization strategy. Empty means xxu.DefaultProfile.
	Profile xxu.Profile
	// ChunkSize is the copy buffer size. Zero means config.DefaultChunkSize.
	ChunkSize int
	// FS is the filesystem both paths live on. Nil means the OS filesystem.
	FS afero.Fs
	// Clock dates rewrite-profile headers. Nil means the local wall clock.
	Clock Clock
}

// Result describes a written package.
type Result struct {
	// Device is the resolved device code stored in the header.
	Device xxu.DeviceCode
	// PayloadSize is the number of payload bytes copied. The header keeps
	// only its low 32 bits.
	PayloadSize uint64
	// Profile is the profile the header was committed with.
	Profile xxu.Profile
}

// converter holds the resolved state of a single conversion.
// It is unexported—callers should use Run.
type converter struct {
	// opts are the validated options with defaults applied.
	opts Options
	// device is resolved before any file is touched.
	device xxu.DeviceCode
}

// errMissingPath is returned when either path is empty.
var errMissingPath = errors.New("input and output paths are required")

// Run converts opts.InputPath into the package opts.OutputPath.
//
// The device is resolved first, so an unknown token or a missing extension
// never creates the output file. On failure the output may be left
// incomplete.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "converter")

	conv, err := newConverter(opts)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "input", conv.opts.InputPath, "output", conv.opts.OutputPath)

	logger.DebugKV(ctx, "Resolved device type",
		"device", conv.device.String(),
		"profile", conv.opts.Profile,
		"chunk_size", conv.opts.ChunkSize)

	size, err := conv.run(ctx)
	if err != nil {
		return nil, err
	}

	if size > xxu.MaxPayloadSize {
		logger.WarnKV(ctx, "Payload exceeds the 32-bit size field, stored size is truncated",
			"payload_size", size)
	}

	logger.InfoKV(ctx, "Package written", "payload_size", size)

	return &Result{
		Device:      conv.device,
		PayloadSize: size,
		Profile:     conv.opts.Profile,
	}, nil
}

// newConverter validates options, applies defaults and resolves the device.
func newConverter(opts *Options) (*converter, error) {
	if opts == nil || opts.InputPath == "" || opts.OutputPath == "" {
		return nil, xxu.NewError(xxu.ErrUsage, "arguments", errMissingPath)
	}

	conv := &converter{opts: *opts}

	profile, err := xxu.ParseProfile(string(conv.opts.Profile))
	if err != nil {
		return nil, err
	}

	conv.opts.Profile = profile

	if conv.opts.ChunkSize <= 0 {
		conv.opts.ChunkSize = config.DefaultChunkSize
	}

	if conv.opts.FS == nil {
		conv.opts.FS = afero.NewOsFs()
	}

	if conv.opts.Clock == nil {
		conv.opts.Clock = systemClock{}
	}

	conv.device, err = xxu.ResolveDevice(conv.opts.DeviceType,
		conv.opts.DeviceTypeSet || conv.opts.DeviceType != "", conv.opts.OutputPath)
	if err != nil {
		return nil, err
	}

	return conv, nil
}

// run opens both files, streams the payload and commits the header.
func (c *converter) run(ctx context.Context) (size uint64, err error) {
	input, err := c.opts.FS.Open(c.opts.InputPath)
	if err != nil {
		return 0, xxu.NewError(xxu.ErrInputOpen, c.opts.InputPath, err)
	}

	// Nothing was written to the input, its close error carries no information.
	defer func() {
		_ = input.Close()
	}()

	output, err := c.opts.FS.Create(c.opts.OutputPath)
	if err != nil {
		return 0, xxu.NewError(xxu.ErrOutputOpen, c.opts.OutputPath, err)
	}

	defer func() {
		if closeErr := output.Close(); closeErr != nil && err == nil {
			err = xxu.NewError(xxu.ErrOutputWrite, c.opts.OutputPath, closeErr)
		}
	}()

	fin := newFinalizer(c.opts.Profile, c.opts.Clock, c.opts.OutputPath)

	if err = fin.Begin(output); err != nil {
		return 0, err
	}

	size, err = newCopier(c.opts.ChunkSize, c.opts.InputPath, c.opts.OutputPath).Copy(ctx, output, input)
	if err != nil {
		return 0, err
	}

	logger.DebugKV(ctx, "Payload copied", "payload_size", size)

	if err = fin.Commit(output, c.device, size); err != nil {
		return 0, err
	}

	logger.Debugf(ctx, "Header committed with %s profile", c.opts.Profile)

	return size, nil
}
