package formats

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshstudio/pkg/math"
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

func TestPLYBinaryRoundTrip(t *testing.T) {
	in := mesh.Box(math.Vec3{X: 1, Y: 2, Z: 3})

	var buf bytes.Buffer
	if err := WritePLY(&buf, in); err != nil {
		t.Fatalf("WritePLY() error = %v", err)
	}

	out, err := ParsePLY(buf.Bytes())
	if err != nil {
		t.Fatalf("ParsePLY() error = %v", err)
	}

	if got, want := len(out.Positions), len(in.Positions); got != want {
		t.Fatalf("len(Positions) = %d, want %d", got, want)
	}
	for i, p := range in.Positions {
		if out.Positions[i] != p {
			t.Errorf("Positions[%d] = %v, want %v", i, out.Positions[i], p)
		}
	}
	if got, want := len(out.Indices), len(in.Indices); got != want {
		t.Fatalf("len(Indices) = %d, want %d", got, want)
	}
	for i, idx := range in.Indices {
		if out.Indices[i] != idx {
			t.Errorf("Indices[%d] = %d, want %d", i, out.Indices[i], idx)
		}
	}
}

func TestParsePLYASCII(t *testing.T) {
	data := []byte(`ply
format ascii 1.0
comment a quad on the XY plane
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`)

	m, err := ParsePLY(data)
	if err != nil {
		t.Fatalf("ParsePLY() error = %v", err)
	}
	if got := len(m.Positions); got != 4 {
		t.Errorf("len(Positions) = %d, want 4", got)
	}
	// The quad fan-triangulates into two triangles.
	want := []uint32{0, 1, 2, 0, 2, 3}
	if got := m.Indices; len(got) != len(want) {
		t.Fatalf("len(Indices) = %d, want %d", len(got), len(want))
	}
	for i, idx := range want {
		if m.Indices[i] != idx {
			t.Errorf("Indices[%d] = %d, want %d", i, m.Indices[i], idx)
		}
	}
}

func TestParsePLYExtraVertexProps(t *testing.T) {
	// Confidence sits between y and z; the codec must pick positions by
	// property name, not column position.
	data := []byte(`ply
format ascii 1.0
element vertex 3
property float x
property float y
property float confidence
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0.5 0
1 0 0.5 0
0 1 0.5 0
3 0 1 2
`)

	m, err := ParsePLY(data)
	if err != nil {
		t.Fatalf("ParsePLY() error = %v", err)
	}
	want := []math.Vec3{{}, {X: 1}, {Y: 1}}
	for i, p := range want {
		if m.Positions[i] != p {
			t.Errorf("Positions[%d] = %v, want %v", i, m.Positions[i], p)
		}
	}
}

func TestParsePLYErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
		want error
	}{
		{"missing magic", "not ply\nend_header\n", ErrInvalidPLY},
		{"big endian", "ply\nformat binary_big_endian 1.0\nelement vertex 0\nproperty float x\nproperty float y\nproperty float z\nelement face 0\nproperty list uchar int vertex_indices\nend_header\n", ErrUnsupportedPLY},
		{"no xyz", "ply\nformat ascii 1.0\nelement vertex 0\nproperty float nx\nelement face 0\nproperty list uchar int vertex_indices\nend_header\n", ErrInvalidPLY},
		{"truncated body", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nproperty float y\nproperty float z\nelement face 0\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n", ErrInvalidPLY},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParsePLY([]byte(tc.data)); !errors.Is(err, tc.want) {
				t.Errorf("ParsePLY() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPLYFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.ply")
	in := mesh.Box(math.Vec3{X: 1, Y: 1, Z: 1})

	if err := WritePLYFile(path, in); err != nil {
		t.Fatalf("WritePLYFile() error = %v", err)
	}
	out, err := ParsePLYFile(path)
	if err != nil {
		t.Fatalf("ParsePLYFile() error = %v", err)
	}
	if got := out.TriangleCount(); got != 12 {
		t.Errorf("TriangleCount() = %d, want 12", got)
	}
}
