package shaders

import (
	"encoding/binary"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func module(words ...uint32) []byte {
	b := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

func TestDecode(t *testing.T) {
	code, err := Decode(module(spirvMagic, 0x00010000, 7, 42))
	require.NoError(t, err)
	require.Equal(t, []uint32{spirvMagic, 0x00010000, 7, 42}, code)
}

func TestDecodeRejects(t *testing.T) {
	for name, b := range map[string][]byte{
		"empty":       nil,
		"short":       {0x03, 0x02, 0x23},
		"unaligned":   append(module(spirvMagic), 0x01),
		"wrong magic": module(0x02032307, 1),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(b)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrNotSPIRV))
		})
	}
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		VertexFile:   {Data: module(spirvMagic, 1)},
		FragmentFile: {Data: module(spirvMagic, 2, 3)},
	}

	set, err := Load(fsys)
	require.NoError(t, err)
	require.Equal(t, []uint32{spirvMagic, 1}, set.Vertex)
	require.Equal(t, []uint32{spirvMagic, 2, 3}, set.Fragment)
}

func TestLoadMissingStage(t *testing.T) {
	fsys := fstest.MapFS{
		VertexFile: {Data: module(spirvMagic, 1)},
	}

	_, err := Load(fsys)
	require.Error(t, err)
	require.True(t, errors.Is(err, fs.ErrNotExist))
	require.Contains(t, err.Error(), FragmentFile)
	require.NotEmpty(t, errors.GetAllHints(err))
}

func TestLoadInvalidStage(t *testing.T) {
	fsys := fstest.MapFS{
		VertexFile:   {Data: module(spirvMagic, 1)},
		FragmentFile: {Data: []byte("#version 450\n")},
	}

	_, err := Load(fsys)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotSPIRV))
}
