package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshstudio/pkg/math"
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

// STL format errors.
var (
	ErrTruncatedSTL = errors.New("truncated STL data")
	ErrInvalidSTL   = errors.New("invalid STL data")
)

const stlHeaderSize = 80

// stlTriangleSize is one binary STL record: normal + 3 vertices + the
// attribute byte count.
const stlTriangleSize = 4*3*4 + 2

// ParseSTL parses STL data, auto-detecting ascii and binary layouts.
// Triangle-soup vertices are welded into an indexed mesh.
func ParseSTL(data []byte) (*mesh.Mesh, error) {
	if isASCIISTL(data) {
		return parseASCIISTL(data)
	}
	return parseBinarySTL(data)
}

// ParseSTLFile parses an STL file from disk.
func ParseSTLFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return ParseSTL(data)
}

// isASCIISTL reports whether data looks like an ascii STL body. The
// "solid" prefix alone is not enough: some binary exporters write it
// into the 80-byte header.
func isASCIISTL(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return false
	}
	return bytes.Contains(head, []byte("facet"))
}

func parseASCIISTL(data []byte) (*mesh.Mesh, error) {
	w := newWelder()

	var tri [3]math.Vec3
	corner := 0
	for lineNo, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "vertex" {
			continue
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("%w: short vertex on line %d", ErrInvalidSTL, lineNo+1)
		}

		var v math.Vec3
		for i, dst := range []*float32{&v.X, &v.Y, &v.Z} {
			f, err := strconv.ParseFloat(fields[i+1], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: vertex on line %d: %v", ErrInvalidSTL, lineNo+1, err)
			}
			*dst = float32(f)
		}

		tri[corner] = v
		corner++
		if corner == 3 {
			w.add(tri[0], tri[1], tri[2])
			corner = 0
		}
	}
	if corner != 0 {
		return nil, fmt.Errorf("%w: facet with %d vertices", ErrInvalidSTL, corner)
	}
	return w.finish(), nil
}

func parseBinarySTL(data []byte) (*mesh.Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, ErrTruncatedSTL
	}

	r := bytes.NewReader(data[stlHeaderSize:])
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading triangle count", ErrTruncatedSTL)
	}
	if int64(count)*stlTriangleSize > int64(r.Len()) {
		return nil, fmt.Errorf("%w: %d triangles declared, %d bytes left", ErrTruncatedSTL, count, r.Len())
	}

	w := newWelder()
	for i := uint32(0); i < count; i++ {
		var rec struct {
			Normal   [3]float32
			Vertices [3][3]float32
			Attr     uint16
		}
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("%w: reading triangle %d", ErrTruncatedSTL, i)
		}
		w.add(
			math.Vec3{X: rec.Vertices[0][0], Y: rec.Vertices[0][1], Z: rec.Vertices[0][2]},
			math.Vec3{X: rec.Vertices[1][0], Y: rec.Vertices[1][1], Z: rec.Vertices[1][2]},
			math.Vec3{X: rec.Vertices[2][0], Y: rec.Vertices[2][1], Z: rec.Vertices[2][2]},
		)
	}
	return w.finish(), nil
}

// WriteSTL writes m as binary STL with per-face normals recomputed from
// the triangle winding.
func WriteSTL(w io.Writer, m *mesh.Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var header [stlHeaderSize]byte
	copy(header[:], "binary STL written by meshstudio")
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.TriangleCount())); err != nil {
		return err
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		v0 := m.Positions[m.Indices[i]]
		v1 := m.Positions[m.Indices[i+1]]
		v2 := m.Positions[m.Indices[i+2]]
		n := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		rec := struct {
			Normal   [3]float32
			Vertices [3][3]float32
			Attr     uint16
		}{
			Normal: [3]float32{n.X, n.Y, n.Z},
			Vertices: [3][3]float32{
				{v0.X, v0.Y, v0.Z},
				{v1.X, v1.Y, v1.Z},
				{v2.X, v2.Y, v2.Z},
			},
		}
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return err
		}
	}
	return nil
}

// WriteSTLFile writes m as a binary STL file.
func WriteSTLFile(path string, m *mesh.Mesh) error {
	var buf bytes.Buffer
	if err := WriteSTL(&buf, m); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
