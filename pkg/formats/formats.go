// Package formats provides codecs for common mesh file formats.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshstudio/pkg/math"
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

// ErrUnsupportedFormat indicates a file extension no codec handles.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Load reads a mesh from disk, choosing the codec by file extension.
func Load(path string) (*mesh.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return ParseSTLFile(path)
	case ".ply":
		return ParsePLYFile(path)
	case ".obj":
		return ParseOBJFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Save writes a mesh to disk, choosing the codec by file extension.
func Save(path string, m *mesh.Mesh) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return WriteSTLFile(path, m)
	case ".ply":
		return WritePLYFile(path, m)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// welder deduplicates triangle-soup vertices by exact position so soup
// formats come back as indexed meshes.
type welder struct {
	m     *mesh.Mesh
	index map[math.Vec3]uint32
}

func newWelder() *welder {
	return &welder{
		m:     &mesh.Mesh{},
		index: make(map[math.Vec3]uint32),
	}
}

// add appends one triangle, reusing previously seen positions.
func (w *welder) add(v0, v1, v2 math.Vec3) {
	for _, v := range [3]math.Vec3{v0, v1, v2} {
		idx, ok := w.index[v]
		if !ok {
			idx = uint32(len(w.m.Positions))
			w.m.Positions = append(w.m.Positions, v)
			w.index[v] = idx
		}
		w.m.Indices = append(w.m.Indices, idx)
	}
}

// finish recomputes normals and returns the welded mesh.
func (w *welder) finish() *mesh.Mesh {
	w.m.RecalculateNormals()
	return w.m
}
