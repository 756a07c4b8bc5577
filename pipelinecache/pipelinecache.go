// Package pipelinecache persists Vulkan pipeline cache data between runs.
//
// Cache data starts with a header identifying the driver that produced it:
//
//	offset  size  field
//	0       4     header length in bytes (32 for version one)
//	4       4     header version (1)
//	8       4     vendor ID, as in VkPhysicalDeviceProperties::vendorID
//	12      4     device ID, as in VkPhysicalDeviceProperties::deviceID
//	16      16    pipeline cache UUID
//
// Data written by a different device or driver must not be handed back to
// vkCreatePipelineCache, so Load checks the header and discards mismatches.
package pipelinecache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	HeaderSize       = 32
	HeaderVersionOne = 1
)

// Identity is what the running device reports about itself.
type Identity struct {
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

type Header struct {
	Length   uint32
	Version  uint32
	VendorID uint32
	DeviceID uint32
	UUID     uuid.UUID
}

var ErrShortHeader = errors.New("pipeline cache data shorter than its header")

func ParseHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return h, errors.Wrapf(ErrShortHeader, "got %d bytes", len(data))
	}

	err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h)
	return h, errors.Wrap(err, "read pipeline cache header")
}

// Mismatches lists every way h fails to describe cache data usable by id.
// An empty result means the data can be reused.
func (h Header) Mismatches(id Identity) []string {
	var problems []string

	if h.Length < HeaderSize {
		problems = append(problems, fmt.Sprintf("bad header length %d", h.Length))
	}
	if h.Version != HeaderVersionOne {
		problems = append(problems, fmt.Sprintf("unsupported header version %d", h.Version))
	}
	if h.VendorID != id.VendorID {
		problems = append(problems, fmt.Sprintf("vendor ID 0x%x, driver expects 0x%x", h.VendorID, id.VendorID))
	}
	if h.DeviceID != id.DeviceID {
		problems = append(problems, fmt.Sprintf("device ID 0x%x, driver expects 0x%x", h.DeviceID, id.DeviceID))
	}
	if h.UUID != id.UUID {
		problems = append(problems, fmt.Sprintf("cache UUID %s, driver expects %s", h.UUID, id.UUID))
	}

	return problems
}

// Load returns the cache data stored at path if it was produced for id. A
// missing file yields nil data. Data for another device or driver is
// deleted so the next Save starts fresh, and nil is returned. What happened
// is reported to log.
func Load(log *slog.Logger, path string, id Identity) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug("no pipeline cache on disk", "path", path)
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "read pipeline cache %s", path)
	}

	header, err := ParseHeader(data)
	var problems []string
	if err != nil {
		problems = []string{err.Error()}
	} else {
		problems = header.Mismatches(id)
	}

	if len(problems) > 0 {
		log.Warn("discarding pipeline cache", "path", path, "problems", problems)
		// Not important if this fails; the file is rewritten on exit.
		_ = os.Remove(path)
		return nil, nil
	}

	log.Debug("loaded pipeline cache", "path", path, "bytes", len(data))
	return data, nil
}

// Save writes data to path through a temporary file in the same directory,
// so a crash never leaves a truncated cache behind.
func Save(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create pipeline cache directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temporary pipeline cache")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write pipeline cache")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close pipeline cache")
	}

	err = os.Rename(tmp.Name(), path)
	return errors.Wrapf(err, "store pipeline cache %s", path)
}
