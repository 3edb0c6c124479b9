package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/meshstudio/pkg/math"
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

// ErrInvalidOBJ indicates malformed Wavefront OBJ data.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// ParseOBJ parses Wavefront OBJ data. Only v and f statements are
// consumed; texture coordinates, normals, groups and materials are
// skipped. Polygon faces are fan-triangulated and negative indices
// resolve relative to the vertices seen so far.
func ParseOBJ(data []byte) (*mesh.Mesh, error) {
	m := &mesh.Mesh{}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: short vertex on line %d", ErrInvalidOBJ, lineNo)
			}
			var v math.Vec3
			for i, dst := range []*float32{&v.X, &v.Y, &v.Z} {
				f, err := strconv.ParseFloat(fields[i+1], 32)
				if err != nil {
					return nil, fmt.Errorf("%w: vertex on line %d: %v", ErrInvalidOBJ, lineNo, err)
				}
				*dst = float32(f)
			}
			m.Positions = append(m.Positions, v)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: face with %d vertices on line %d", ErrInvalidOBJ, len(fields)-1, lineNo)
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				idx, err := resolveOBJIndex(ref, len(m.Positions))
				if err != nil {
					return nil, fmt.Errorf("%w: face on line %d: %v", ErrInvalidOBJ, lineNo, err)
				}
				face = append(face, idx)
			}
			appendFan(m, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ data: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.RecalculateNormals()
	return m, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

// resolveOBJIndex converts one face vertex reference (i, i/j, i//k or
// i/j/k, possibly negative) into a zero-based position index.
func resolveOBJIndex(ref string, vertexCount int) (uint32, error) {
	if slash := strings.IndexByte(ref, '/'); slash >= 0 {
		ref = ref[:slash]
	}
	i, err := strconv.Atoi(ref)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += vertexCount
	default:
		return 0, fmt.Errorf("index 0 is not valid")
	}
	if i < 0 || i >= vertexCount {
		return 0, fmt.Errorf("index %s out of range", ref)
	}
	return uint32(i), nil
}
