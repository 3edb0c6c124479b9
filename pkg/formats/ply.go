package formats

import (
	"bufio"
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

// PLY format errors.
var (
	ErrInvalidPLY     = errors.New("invalid PLY data")
	ErrUnsupportedPLY = errors.New("unsupported PLY feature")
)

// plyHeader captures the subset of the header the codec needs: vertex
// and face counts, the body format, and where each position property
// sits inside the vertex record.
type plyHeader struct {
	format      string
	vertexCount int
	faceCount   int
	vertexProps []string
	bodyOffset  int
}

// ParsePLY parses PLY data in ascii or binary_little_endian format.
// Only float32 vertex properties and uchar/int face lists are handled;
// extra vertex properties are skipped.
func ParsePLY(data []byte) (*mesh.Mesh, error) {
	h, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	body := data[h.bodyOffset:]
	switch h.format {
	case "ascii":
		return parseASCIIPLYBody(h, body)
	case "binary_little_endian":
		return parseBinaryPLYBody(h, body)
	default:
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedPLY, h.format)
	}
}

// ParsePLYFile parses a PLY file from disk.
func ParsePLYFile(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	return ParsePLY(data)
}

func parsePLYHeader(data []byte) (*plyHeader, error) {
	h := &plyHeader{vertexCount: -1, faceCount: -1}

	offset := 0
	element := ""
	first := true
	for offset < len(data) {
		nl := bytes.IndexByte(data[offset:], '\n')
		if nl < 0 {
			return nil, fmt.Errorf("%w: unterminated header", ErrInvalidPLY)
		}
		line := strings.TrimRight(string(data[offset:offset+nl]), "\r")
		offset += nl + 1

		fields := strings.Fields(line)
		if first {
			if line != "ply" {
				return nil, fmt.Errorf("%w: missing ply magic", ErrInvalidPLY)
			}
			first = false
			continue
		}
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: malformed format line", ErrInvalidPLY)
			}
			h.format = fields[1]
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: malformed element line", ErrInvalidPLY)
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: element count %q", ErrInvalidPLY, fields[2])
			}
			element = fields[1]
			switch element {
			case "vertex":
				h.vertexCount = n
			case "face":
				h.faceCount = n
			default:
				if n > 0 {
					return nil, fmt.Errorf("%w: element %s", ErrUnsupportedPLY, element)
				}
			}
		case "property":
			if element == "vertex" {
				if len(fields) < 3 {
					return nil, fmt.Errorf("%w: malformed property line", ErrInvalidPLY)
				}
				if fields[1] == "list" {
					return nil, fmt.Errorf("%w: list property on vertex element", ErrUnsupportedPLY)
				}
				if fields[1] != "float" && fields[1] != "float32" {
					return nil, fmt.Errorf("%w: vertex property type %s", ErrUnsupportedPLY, fields[1])
				}
				h.vertexProps = append(h.vertexProps, fields[len(fields)-1])
			}
		case "end_header":
			if h.vertexCount < 0 || h.faceCount < 0 {
				return nil, fmt.Errorf("%w: missing vertex or face element", ErrInvalidPLY)
			}
			if !hasProps(h.vertexProps, "x", "y", "z") {
				return nil, fmt.Errorf("%w: vertex element lacks x/y/z", ErrInvalidPLY)
			}
			h.bodyOffset = offset
			return h, nil
		default:
			return nil, fmt.Errorf("%w: header keyword %q", ErrInvalidPLY, fields[0])
		}
	}
	return nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLY)
}

func hasProps(props []string, names ...string) bool {
	for _, name := range names {
		found := false
		for _, p := range props {
			if p == name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func propIndex(props []string, name string) int {
	for i, p := range props {
		if p == name {
			return i
		}
	}
	return -1
}

func parseASCIIPLYBody(h *plyHeader, body []byte) (*mesh.Mesh, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	ix := propIndex(h.vertexProps, "x")
	iy := propIndex(h.vertexProps, "y")
	iz := propIndex(h.vertexProps, "z")

	m := &mesh.Mesh{
		Positions: make([]math.Vec3, 0, h.vertexCount),
		Indices:   make([]uint32, 0, h.faceCount*3),
	}

	nextLine := func() ([]string, error) {
		for sc.Scan() {
			fields := strings.Fields(sc.Text())
			if len(fields) > 0 {
				return fields, nil
			}
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: truncated body", ErrInvalidPLY)
	}

	for i := 0; i < h.vertexCount; i++ {
		fields, err := nextLine()
		if err != nil {
			return nil, err
		}
		if len(fields) < len(h.vertexProps) {
			return nil, fmt.Errorf("%w: short vertex row %d", ErrInvalidPLY, i)
		}
		var v math.Vec3
		for _, c := range []struct {
			idx int
			dst *float32
		}{{ix, &v.X}, {iy, &v.Y}, {iz, &v.Z}} {
			f, err := strconv.ParseFloat(fields[c.idx], 32)
			if err != nil {
				return nil, fmt.Errorf("%w: vertex row %d: %v", ErrInvalidPLY, i, err)
			}
			*c.dst = float32(f)
		}
		m.Positions = append(m.Positions, v)
	}

	for i := 0; i < h.faceCount; i++ {
		fields, err := nextLine()
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < n+1 {
			return nil, fmt.Errorf("%w: short face row %d", ErrInvalidPLY, i)
		}
		face := make([]uint32, n)
		for j := 0; j < n; j++ {
			idx, err := strconv.ParseUint(fields[j+1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: face row %d: %v", ErrInvalidPLY, i, err)
			}
			face[j] = uint32(idx)
		}
		appendFan(m, face)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.RecalculateNormals()
	return m, nil
}

func parseBinaryPLYBody(h *plyHeader, body []byte) (*mesh.Mesh, error) {
	r := bytes.NewReader(body)

	ix := propIndex(h.vertexProps, "x")
	iy := propIndex(h.vertexProps, "y")
	iz := propIndex(h.vertexProps, "z")

	m := &mesh.Mesh{
		Positions: make([]math.Vec3, 0, h.vertexCount),
		Indices:   make([]uint32, 0, h.faceCount*3),
	}

	row := make([]float32, len(h.vertexProps))
	for i := 0; i < h.vertexCount; i++ {
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("%w: vertex row %d", ErrInvalidPLY, i)
		}
		m.Positions = append(m.Positions, math.Vec3{X: row[ix], Y: row[iy], Z: row[iz]})
	}

	for i := 0; i < h.faceCount; i++ {
		n, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: face row %d", ErrInvalidPLY, i)
		}
		face := make([]uint32, n)
		for j := range face {
			var idx int32
			if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
				return nil, fmt.Errorf("%w: face row %d", ErrInvalidPLY, i)
			}
			if idx < 0 {
				return nil, fmt.Errorf("%w: negative face index in row %d", ErrInvalidPLY, i)
			}
			face[j] = uint32(idx)
		}
		appendFan(m, face)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.RecalculateNormals()
	return m, nil
}

// appendFan triangulates a polygon face as a fan around its first
// vertex. Degenerate faces with fewer than three vertices are dropped.
func appendFan(m *mesh.Mesh, face []uint32) {
	for j := 1; j+1 < len(face); j++ {
		m.Indices = append(m.Indices, face[0], face[j], face[j+1])
	}
}

// WritePLY writes m in binary_little_endian PLY format with x/y/z
// vertex properties and triangle faces.
func WritePLY(w io.Writer, m *mesh.Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}

	header := fmt.Sprintf("ply\nformat binary_little_endian 1.0\n"+
		"element vertex %d\n"+
		"property float x\nproperty float y\nproperty float z\n"+
		"element face %d\n"+
		"property list uchar int vertex_indices\n"+
		"end_header\n",
		len(m.Positions), m.TriangleCount())
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	for _, p := range m.Positions {
		if err := binary.Write(w, binary.LittleEndian, [3]float32{p.X, p.Y, p.Z}); err != nil {
			return err
		}
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		if _, err := w.Write([]byte{3}); err != nil {
			return err
		}
		face := [3]int32{int32(m.Indices[i]), int32(m.Indices[i+1]), int32(m.Indices[i+2])}
		if err := binary.Write(w, binary.LittleEndian, face); err != nil {
			return err
		}
	}
	return nil
}

// WritePLYFile writes m as a binary PLY file.
func WritePLYFile(path string, m *mesh.Mesh) error {
	var buf bytes.Buffer
	if err := WritePLY(&buf, m); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
