// Package shaders loads the triangle's SPIR-V stages. The binaries are built
// from the GLSL sources in this directory with glslc from the Vulkan SDK.
package shaders

//go:generate glslc shader.vert -o vert.spv
//go:generate glslc shader.frag -o frag.spv

import (
	"encoding/binary"
	"io/fs"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

const (
	VertexFile   = "vert.spv"
	FragmentFile = "frag.spv"

	// EntryPoint is the entry function name in both stages.
	EntryPoint = "main"

	spirvMagic = 0x07230203
)

var ErrNotSPIRV = errors.New("not a SPIR-V module")

// Set is the pair of decoded shader stages the graphics pipeline needs.
type Set struct {
	Vertex   []uint32
	Fragment []uint32
}

// Load reads and decodes both stages from fsys. The files are read
// concurrently.
func Load(fsys fs.FS) (*Set, error) {
	set := &Set{}

	var group errgroup.Group
	group.Go(func() error {
		var err error
		set.Vertex, err = loadStage(fsys, VertexFile)
		return err
	})
	group.Go(func() error {
		var err error
		set.Fragment, err = loadStage(fsys, FragmentFile)
		return err
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

func loadStage(fsys fs.FS, name string) ([]uint32, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "read shader %s", name),
			"run go generate ./shaders with glslc on the PATH to build the SPIR-V binaries")
	}

	code, err := Decode(b)
	if err != nil {
		return nil, errors.Wrapf(err, "decode shader %s", name)
	}
	return code, nil
}

// Decode converts little-endian SPIR-V bytes to the word slice Vulkan
// expects, checking the size and magic number.
func Decode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, errors.Wrap(ErrNotSPIRV, "empty module")
	}
	if len(b)%4 != 0 {
		return nil, errors.Wrapf(ErrNotSPIRV, "size %d is not a multiple of 4", len(b))
	}

	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(b[i*4:])
	}

	if code[0] != spirvMagic {
		return nil, errors.Wrapf(ErrNotSPIRV, "bad magic number 0x%08x", code[0])
	}

	return code, nil
}
