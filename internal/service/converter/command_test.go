package converter

import (
	"bytes"
	"context"
	"encoding/binary"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/tib2xxu/internal/domain/xxu"
)

// newPayload returns deterministic pseudo-random bytes.
func newPayload(t *testing.T, size int) []byte {
	t.Helper()

	payload := make([]byte, size)
	_, _ = rand.New(rand.NewSource(int64(size))).Read(payload) //nolint:gosec // Test data only.

	return payload
}

// writeInput stores payload at path on fs.
func writeInput(t *testing.T, fs afero.Fs, path string, payload []byte) {
	t.Helper()

	require.NoError(t, afero.WriteFile(fs, path, payload, 0o644))
}

// requirePackage checks the invariant parts of a package file.
func requirePackage(t *testing.T, data, payload []byte, device byte) {
	t.Helper()

	require.Len(t, data, xxu.HeaderSize+len(payload))
	require.Equal(t, []byte("**TIFL**"), data[0x00:0x08])
	require.Equal(t, byte(8), data[0x10])
	require.Equal(t, []byte("basecode"), data[0x11:0x19])
	require.Equal(t, device, data[0x30])
	require.Equal(t, byte(0x23), data[0x31])
	require.Equal(t, uint32(len(payload)), binary.LittleEndian.Uint32(data[0x4A:0x4E]))
	require.True(t, bytes.Equal(payload, data[xxu.HeaderSize:]), "payload must be copied verbatim")
}

// TestRun_PatchProfile verifies the default profile output on an in-memory filesystem.
func TestRun_PatchProfile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	payload := newPayload(t, 20_000)
	writeInput(t, fs, "os.tib", payload)

	res, err := Run(context.Background(), &Options{
		InputPath:  "os.tib",
		OutputPath: "os.89u",
		ChunkSize:  512,
		FS:         fs,
	})
	require.NoError(t, err)
	require.Equal(t, xxu.DeviceTI89, res.Device)
	require.Equal(t, uint64(len(payload)), res.PayloadSize)
	require.Equal(t, xxu.ProfilePatch, res.Profile)

	data, err := afero.ReadFile(fs, "os.89u")
	require.NoError(t, err)
	requirePackage(t, data, payload, 0x98)

	// The patch profile leaves the date unset.
	require.Equal(t, []byte{0, 0, 0, 0}, data[0x0C:0x10])
}

// TestRun_RewriteProfile verifies the dated header written after the payload.
func TestRun_RewriteProfile(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Date(2026, time.October, 18, 15, 4, 5, 0, time.Local)).Times(1)

	fs := afero.NewMemMapFs()
	payload := newPayload(t, 9000)
	writeInput(t, fs, "os.tib", payload)

	res, err := Run(context.Background(), &Options{
		InputPath:  "os.tib",
		OutputPath: "os.9xu",
		Profile:    xxu.ProfileRewrite,
		FS:         fs,
		Clock:      clock,
	})
	require.NoError(t, err)
	require.Equal(t, xxu.ProfileRewrite, res.Profile)

	data, err := afero.ReadFile(fs, "os.9xu")
	require.NoError(t, err)
	requirePackage(t, data, payload, 0x88)
	require.Equal(t, []byte{0x10, 0x18, 0x20, 0x26}, data[0x0C:0x10])
}

// TestRun_EmptyPayload ensures an empty image produces a header-only package.
func TestRun_EmptyPayload(t *testing.T) {
	t.Parallel()

	for _, profile := range xxu.Profiles() {
		fs := afero.NewMemMapFs()
		writeInput(t, fs, "empty.tib", nil)

		_, err := Run(context.Background(), &Options{
			InputPath:  "empty.tib",
			OutputPath: "empty.v2u",
			Profile:    profile,
			FS:         fs,
		})
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, "empty.v2u")
		require.NoError(t, err)
		requirePackage(t, data, []byte{}, 0x88)
	}
}

// TestRun_ResolutionErrors verifies that bad device tokens never create the output.
func TestRun_ResolutionErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		output      string
		override    string
		overrideSet bool
		wantErr     error
	}{
		{name: "unknown extension", output: "os.xxu", wantErr: xxu.ErrUnknownDeviceType},
		{name: "upper case extension", output: "os.89U", wantErr: xxu.ErrUnknownDeviceType},
		{name: "missing extension", output: "output", wantErr: xxu.ErrMissingExtension},
		{name: "unknown override", output: "os.89u", override: "89U", wantErr: xxu.ErrUnknownDeviceType},
		{name: "empty override", output: "os.89u", overrideSet: true, wantErr: xxu.ErrUnknownDeviceType},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			writeInput(t, fs, "os.tib", newPayload(t, 100))

			_, err := Run(context.Background(), &Options{
				InputPath:     "os.tib",
				OutputPath:    tc.output,
				DeviceType:    tc.override,
				DeviceTypeSet: tc.overrideSet,
				FS:            fs,
			})
			require.ErrorIs(t, err, tc.wantErr)

			exists, err := afero.Exists(fs, tc.output)
			require.NoError(t, err)
			require.False(t, exists)
		})
	}
}

// TestRun_OverrideDevice checks that -t wins over a missing or foreign extension.
func TestRun_OverrideDevice(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	payload := newPayload(t, 300)
	writeInput(t, fs, "os.tib", payload)

	_, err := Run(context.Background(), &Options{
		InputPath:  "os.tib",
		OutputPath: "package",
		DeviceType: "89u",
		FS:         fs,
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "package")
	require.NoError(t, err)
	requirePackage(t, data, payload, 0x98)
}

// TestRun_OpenErrors verifies input and output open failures name the path.
func TestRun_OpenErrors(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	_, err := Run(context.Background(), &Options{InputPath: "missing.tib", OutputPath: "os.89u", FS: fs})
	require.ErrorIs(t, err, xxu.ErrInputOpen)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Contains(t, err.Error(), "missing.tib: ")

	exists, err := afero.Exists(fs, "os.89u")
	require.NoError(t, err)
	require.False(t, exists)

	writeInput(t, fs, "os.tib", newPayload(t, 10))

	_, err = Run(context.Background(), &Options{
		InputPath:  "os.tib",
		OutputPath: "os.89u",
		FS:         afero.NewReadOnlyFs(fs),
	})
	require.ErrorIs(t, err, xxu.ErrOutputOpen)
}

// TestRun_InvalidOptions covers missing paths and unknown profiles.
func TestRun_InvalidOptions(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), nil)
	require.ErrorIs(t, err, xxu.ErrUsage)

	_, err = Run(context.Background(), &Options{InputPath: "os.tib"})
	require.ErrorIs(t, err, xxu.ErrUsage)

	_, err = Run(context.Background(), &Options{InputPath: "os.tib", OutputPath: "os.89u", Profile: "append"})
	require.ErrorIs(t, err, xxu.ErrUsage)
}

// TestRun_Idempotent ensures repeated conversions produce identical bytes.
func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeInput(t, fs, "os.tib", newPayload(t, 4096))

	outputs := make([][]byte, 0, 2)

	for i := 0; i < 2; i++ {
		_, err := Run(context.Background(), &Options{InputPath: "os.tib", OutputPath: "os.89u", FS: fs})
		require.NoError(t, err)

		data, err := afero.ReadFile(fs, "os.89u")
		require.NoError(t, err)

		outputs = append(outputs, data)
	}

	require.Equal(t, outputs[0], outputs[1])
}

// TestRun_OSFilesystem runs both profiles against real files and compares them.
func TestRun_OSFilesystem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "os.tib")
	payload := newPayload(t, 70_001)
	require.NoError(t, os.WriteFile(input, payload, 0o600))

	patched := filepath.Join(dir, "patched.89u")
	_, err := Run(context.Background(), &Options{InputPath: input, OutputPath: patched})
	require.NoError(t, err)

	rewritten := filepath.Join(dir, "rewritten.89u")
	before := xxu.DateOf(time.Now())
	_, err = Run(context.Background(), &Options{InputPath: input, OutputPath: rewritten, Profile: xxu.ProfileRewrite})
	require.NoError(t, err)

	after := xxu.DateOf(time.Now())

	patchedData, err := os.ReadFile(patched)
	require.NoError(t, err)
	requirePackage(t, patchedData, payload, 0x98)

	rewrittenData, err := os.ReadFile(rewritten)
	require.NoError(t, err)
	requirePackage(t, rewrittenData, payload, 0x98)

	header, err := xxu.DecodeHeader(rewrittenData)
	require.NoError(t, err)
	require.Contains(t, []xxu.Date{before, after}, header.Date)

	// Apart from the date the two profiles agree byte for byte.
	copy(rewrittenData[xxu.OffsetDate:xxu.OffsetDate+4], []byte{0, 0, 0, 0})
	require.Equal(t, patchedData, rewrittenData)
}

// TestRun_Cancelled verifies a cancelled context stops the copy.
func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeInput(t, fs, "os.tib", newPayload(t, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &Options{InputPath: "os.tib", OutputPath: "os.89u", FS: fs})
	require.ErrorIs(t, err, context.Canceled)
}
