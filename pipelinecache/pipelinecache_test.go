package pipelinecache

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testIdentity = Identity{
	VendorID: 0x10de,
	DeviceID: 0x2484,
	UUID:     uuid.MustParse("6f1c2a7e-3d4b-4c8e-9a0f-112233445566"),
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func cacheData(h Header, payload []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, h)
	buf.Write(payload)
	return buf.Bytes()
}

func validHeader() Header {
	return Header{
		Length:   HeaderSize,
		Version:  HeaderVersionOne,
		VendorID: testIdentity.VendorID,
		DeviceID: testIdentity.DeviceID,
		UUID:     testIdentity.UUID,
	}
}

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader(cacheData(validHeader(), []byte{1, 2, 3}))
	require.NoError(t, err)
	require.Equal(t, validHeader(), h)
	require.Empty(t, h.Mismatches(testIdentity))
}

func TestParseHeaderTooShort(t *testing.T) {
	_, err := ParseHeader(make([]byte, HeaderSize-1))
	require.True(t, errors.Is(err, ErrShortHeader))
}

func TestMismatches(t *testing.T) {
	h := validHeader()
	h.Length = 16
	h.Version = 2
	h.VendorID = 0x1002
	h.DeviceID = 0x73bf
	h.UUID = uuid.Nil

	problems := h.Mismatches(testIdentity)
	require.Len(t, problems, 5)
	require.Contains(t, problems[2], "0x1002")
	require.Contains(t, problems[4], testIdentity.UUID.String())
}

func TestLoadMissingFile(t *testing.T) {
	data, err := Load(discardLogger(), filepath.Join(t.TempDir(), "pipeline.cache"), testIdentity)
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestLoadMatchingCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.cache")
	want := cacheData(validHeader(), []byte("driver blob"))
	require.NoError(t, os.WriteFile(path, want, 0o644))

	data, err := Load(discardLogger(), path, testIdentity)
	require.NoError(t, err)
	require.Equal(t, want, data)
	require.FileExists(t, path)
}

func TestLoadDiscardsForeignCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.cache")
	h := validHeader()
	h.DeviceID++
	require.NoError(t, os.WriteFile(path, cacheData(h, nil), 0o644))

	data, err := Load(discardLogger(), path, testIdentity)
	require.NoError(t, err)
	require.Nil(t, data)
	require.NoFileExists(t, path)
}

func TestLoadReportsToGivenLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.cache")
	h := validHeader()
	h.VendorID = 0x1002
	require.NoError(t, os.WriteFile(path, cacheData(h, nil), 0o644))

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	_, err := Load(log, path, testIdentity)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "level=WARN")
	require.Contains(t, buf.String(), `msg="discarding pipeline cache"`)
	require.Contains(t, buf.String(), "0x1002")
}

func TestLoadDiscardsTruncatedCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.cache")
	require.NoError(t, os.WriteFile(path, []byte{32, 0, 0, 0}, 0o644))

	data, err := Load(discardLogger(), path, testIdentity)
	require.NoError(t, err)
	require.Nil(t, data)
	require.NoFileExists(t, path)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pipeline.cache")
	want := cacheData(validHeader(), []byte{9, 9, 9})

	require.NoError(t, Save(path, want))
	require.NoError(t, Save(path, want))

	data, err := Load(discardLogger(), path, testIdentity)
	require.NoError(t, err)
	require.Equal(t, want, data)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
