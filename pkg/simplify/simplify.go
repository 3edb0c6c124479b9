// Package simplify implements quadric-error-metric mesh decimation.
//
// The algorithm collapses mesh edges in order of increasing quadric
// error, growing the acceptance threshold each pass, until the requested
// triangle count is reached or the pass budget runs out. Boundary
// vertices never merge with interior ones and collapses that would fold
// a neighboring face over are rejected.
package simplify

import (
	gomath "math"

	"github.com/Faultbox/meshstudio/pkg/math"
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

const (
	// maxPasses bounds the outer collapse loop.
	maxPasses = 100
	// refreshInterval is how many passes may run on stale adjacency
	// before it is rebuilt.
	refreshInterval = 5
	// thresholdBase scales the per-pass error acceptance bound.
	thresholdBase = 1e-9
	// colinearDotLimit rejects collapses producing sliver faces
	// (directions within ~2.6 degrees of colinear).
	colinearDotLimit = 0.999
	// foldoverDotLimit rejects collapses rotating a face normal by more
	// than ~78 degrees.
	foldoverDotLimit = 0.2
)

// workVertex is a vertex of the working mesh: position, accumulated
// quadric, boundary flag, and a (start, count) range into the shared
// adjacency array.
type workVertex struct {
	p      math.Vec3
	q      Quadric
	tstart int
	tcount int
	border bool
}

// workTriangle is a triangle of the working mesh. err holds the collapse
// error of the three directed edges plus their minimum. Deleted
// triangles are tombstones until the next compaction.
type workTriangle struct {
	v       [3]uint32
	err     [4]float32
	n       math.Vec3
	deleted bool
	dirty   bool
}

// ref addresses one triangle corner: triangle id plus local vertex slot.
type ref struct {
	tid     int
	tvertex int
}

// Simplifier is a single-use decimation engine. Build one with New, call
// Run once, then read the result with Mesh.
type Simplifier struct {
	vertices  []workVertex
	triangles []workTriangle
	refs      []ref

	// Flip-test scratch, reused across collapse candidates and cleared
	// at the start of each use.
	deleted0 []bool
	deleted1 []bool
}

// New builds a working copy of m. The input mesh is not retained.
func New(m *mesh.Mesh) *Simplifier {
	s := &Simplifier{
		vertices:  make([]workVertex, 0, len(m.Positions)),
		triangles: make([]workTriangle, 0, m.TriangleCount()),
	}
	for _, p := range m.Positions {
		s.vertices = append(s.vertices, workVertex{p: p})
	}
	for i := 0; i+2 < len(m.Indices); i += 3 {
		s.triangles = append(s.triangles, workTriangle{
			v: [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]},
		})
	}
	return s
}

// Simplify decimates m toward targetTriangleCount with the given
// aggressiveness (> 0; larger values admit higher-error collapses
// sooner). The input mesh is left untouched. The target is a heuristic
// lower bound, not an exact output count.
func Simplify(m *mesh.Mesh, targetTriangleCount int, aggressiveness float64) (*mesh.Mesh, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	s := New(m)
	s.Run(targetTriangleCount, aggressiveness)
	return s.Mesh(), nil
}

// Run collapses edges until at most targetCount triangles remain or the
// pass budget is exhausted.
func (s *Simplifier) Run(targetCount int, aggressiveness float64) {
	for i := range s.triangles {
		s.triangles[i].deleted = false
	}

	deletedTriangles := 0
	triangleCount := len(s.triangles)

	for pass := 0; pass < maxPasses; pass++ {
		if triangleCount-deletedTriangles <= targetCount {
			break
		}

		// Between refreshes adjacency and errors are allowed to go
		// stale; tombstones are only reclaimed here.
		if pass%refreshInterval == 0 {
			s.refresh(pass)
		}

		for i := range s.triangles {
			s.triangles[i].dirty = false
		}

		// Acceptance bound grows monotonically across passes.
		threshold := float32(thresholdBase * gomath.Pow(float64(pass+3), aggressiveness))

		for i := 0; i < len(s.triangles); i++ {
			t := &s.triangles[i]
			if t.err[3] > threshold || t.deleted || t.dirty {
				continue
			}

			for j := 0; j < 3; j++ {
				if t.err[j] >= threshold {
					continue
				}
				i0 := t.v[j]
				i1 := t.v[(j+1)%3]
				v0 := &s.vertices[i0]
				v1 := &s.vertices[i1]

				// Never merge a boundary vertex with an interior one.
				if v0.border != v1.border {
					continue
				}

				_, p := s.edgeError(i0, i1)

				s.deleted0 = resetBools(s.deleted0, v0.tcount)
				s.deleted1 = resetBools(s.deleted1, v1.tcount)

				if s.wouldFlip(p, i1, i0, s.deleted0) {
					continue
				}
				if s.wouldFlip(p, i0, i1, s.deleted1) {
					continue
				}

				// Commit: i0 absorbs i1.
				v0.p = p
				v0.q = v1.q.Add(v0.q)
				tstart := len(s.refs)

				deletedTriangles += s.updateTriangles(i0, i0, s.deleted0)
				deletedTriangles += s.updateTriangles(i0, i1, s.deleted1)

				// Merge the two adjacency ranges, reusing the old range
				// in place when the merged list is no larger.
				tcount := len(s.refs) - tstart
				if tcount <= v0.tcount {
					copy(s.refs[v0.tstart:v0.tstart+tcount], s.refs[tstart:])
				} else {
					v0.tstart = tstart
				}
				v0.tcount = tcount

				// At most one collapse per triangle per pass.
				break
			}

			if triangleCount-deletedTriangles <= targetCount {
				break
			}
		}
	}

	s.cleanMesh()
}

// Mesh writes the decimated geometry into a fresh mesh and recomputes
// its normals.
func (s *Simplifier) Mesh() *mesh.Mesh {
	out := &mesh.Mesh{
		Positions: make([]math.Vec3, 0, len(s.vertices)),
		Indices:   make([]uint32, 0, len(s.triangles)*3),
	}
	for i := range s.vertices {
		out.Positions = append(out.Positions, s.vertices[i].p)
	}
	for i := range s.triangles {
		if s.triangles[i].deleted {
			continue
		}
		out.Indices = append(out.Indices, s.triangles[i].v[0], s.triangles[i].v[1], s.triangles[i].v[2])
	}
	out.RecalculateNormals()
	return out
}

// edgeError returns the cost of contracting the edge (id1, id2) and the
// position the merged vertex should take.
func (s *Simplifier) edgeError(id1, id2 uint32) (float32, math.Vec3) {
	v1 := &s.vertices[id1]
	v2 := &s.vertices[id2]
	q := v1.q.Add(v2.q)
	bothBorder := v1.border && v2.border

	// The unique minimizer of the quadric form, unless the 3x3 system is
	// singular or the edge lies on the boundary.
	if det := q.det(0, 1, 2, 1, 4, 5, 2, 5, 7); det != 0 && !bothBorder {
		p := math.Vec3{
			X: -1 / det * q.det(1, 2, 3, 4, 5, 6, 5, 7, 8),
			Y: 1 / det * q.det(0, 2, 3, 1, 5, 6, 2, 7, 8),
			Z: -1 / det * q.det(0, 1, 3, 1, 4, 6, 2, 5, 8),
		}
		return q.Eval(p), p
	}

	// Fall back to the best of the endpoints and their midpoint.
	p1 := v1.p
	p2 := v2.p
	p3 := p1.Add(p2).Scale(0.5)
	e1 := q.Eval(p1)
	e2 := q.Eval(p2)
	e3 := q.Eval(p3)

	e := min(e1, min(e2, e3))
	switch e {
	case e1:
		return e, p1
	case e2:
		return e, p2
	default:
		return e, p3
	}
}

// wouldFlip checks, from vid's side, whether moving vid to p folds over
// or degenerates any incident triangle. Triangles also incident to the
// other collapsing endpoint are flagged in deleted for removal instead
// of being tested.
func (s *Simplifier) wouldFlip(p math.Vec3, other uint32, vid uint32, deleted []bool) bool {
	v := s.vertices[vid]
	for k := 0; k < v.tcount; k++ {
		r := s.refs[v.tstart+k]
		t := &s.triangles[r.tid]
		if t.deleted {
			continue
		}

		id1 := t.v[(r.tvertex+1)%3]
		id2 := t.v[(r.tvertex+2)%3]
		if id1 == other || id2 == other {
			// Shares the collapsing edge; it degenerates and is removed.
			deleted[k] = true
			continue
		}

		d1 := s.vertices[id1].p.Sub(p).Normalize()
		d2 := s.vertices[id2].p.Sub(p).Normalize()
		if gomath.Abs(float64(d1.Dot(d2))) > colinearDotLimit {
			return true
		}

		n := d1.Cross(d2).Normalize()
		if n.Dot(t.n) < foldoverDotLimit {
			return true
		}
	}
	return false
}

// updateTriangles repoints every live triangle around vid to target,
// refreshing its edge errors and appending its adjacency refs. Triangles
// flagged by the flip test become tombstones. Returns the number of
// triangles deleted.
func (s *Simplifier) updateTriangles(target, vid uint32, deleted []bool) int {
	removed := 0
	v := s.vertices[vid]
	for k := 0; k < v.tcount; k++ {
		r := s.refs[v.tstart+k]
		t := &s.triangles[r.tid]
		if t.deleted {
			continue
		}
		if deleted[k] {
			t.deleted = true
			removed++
			continue
		}

		t.v[r.tvertex] = target
		t.dirty = true
		t.err[0], _ = s.edgeError(t.v[0], t.v[1])
		t.err[1], _ = s.edgeError(t.v[1], t.v[2])
		t.err[2], _ = s.edgeError(t.v[2], t.v[0])
		t.err[3] = min(t.err[0], min(t.err[1], t.err[2]))
		s.refs = append(s.refs, r)
	}
	return removed
}

// refresh rebuilds the per-vertex adjacency ranges, compacting tombstoned
// triangles first on every pass after the initial one. On the initial
// pass it also derives boundary flags, vertex quadrics, and edge errors.
func (s *Simplifier) refresh(pass int) {
	if pass > 0 {
		dst := 0
		for i := range s.triangles {
			if !s.triangles[i].deleted {
				s.triangles[dst] = s.triangles[i]
				dst++
			}
		}
		s.triangles = s.triangles[:dst]
	}

	// Count incident triangles, assign contiguous ranges by prefix sum,
	// then fill with a per-vertex write cursor.
	for i := range s.vertices {
		s.vertices[i].tstart = 0
		s.vertices[i].tcount = 0
	}
	for i := range s.triangles {
		for _, vid := range s.triangles[i].v {
			s.vertices[vid].tcount++
		}
	}
	tstart := 0
	for i := range s.vertices {
		v := &s.vertices[i]
		v.tstart = tstart
		tstart += v.tcount
		v.tcount = 0
	}

	if cap(s.refs) < len(s.triangles)*3 {
		s.refs = make([]ref, len(s.triangles)*3)
	} else {
		s.refs = s.refs[:len(s.triangles)*3]
	}
	for i := range s.triangles {
		for j, vid := range s.triangles[i].v {
			v := &s.vertices[vid]
			s.refs[v.tstart+v.tcount] = ref{tid: i, tvertex: j}
			v.tcount++
		}
	}

	if pass == 0 {
		s.markBorders()
		s.initQuadrics()
	}
}

// markBorders flags boundary vertices by adjacency multiplicity: a
// neighbor id seen exactly once across a vertex's incident triangles is
// treated as lying on an open edge. This is an approximation, not a
// half-edge boundary test.
func (s *Simplifier) markBorders() {
	for i := range s.vertices {
		s.vertices[i].border = false
	}

	var vcount []int
	var vids []uint32

	for i := range s.vertices {
		v := s.vertices[i]
		vcount = vcount[:0]
		vids = vids[:0]

		for j := 0; j < v.tcount; j++ {
			t := &s.triangles[s.refs[v.tstart+j].tid]
			for _, id := range t.v {
				ofs := 0
				for ofs < len(vids) && vids[ofs] != id {
					ofs++
				}
				if ofs == len(vids) {
					vcount = append(vcount, 1)
					vids = append(vids, id)
				} else {
					vcount[ofs]++
				}
			}
		}
		for j, c := range vcount {
			if c == 1 {
				s.vertices[vids[j]].border = true
			}
		}
	}
}

// initQuadrics recomputes every vertex quadric from its incident face
// planes, records face normals, and seeds the per-triangle edge errors.
func (s *Simplifier) initQuadrics() {
	for i := range s.vertices {
		s.vertices[i].q = Quadric{}
	}

	for i := range s.triangles {
		t := &s.triangles[i]
		p0 := s.vertices[t.v[0]].p
		p1 := s.vertices[t.v[1]].p
		p2 := s.vertices[t.v[2]].p

		n := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
		t.n = n

		planeQ := FromPlane(n.X, n.Y, n.Z, -n.Dot(p0))
		for _, vid := range t.v {
			s.vertices[vid].q = s.vertices[vid].q.Add(planeQ)
		}
	}

	for i := range s.triangles {
		t := &s.triangles[i]
		t.err[0], _ = s.edgeError(t.v[0], t.v[1])
		t.err[1], _ = s.edgeError(t.v[1], t.v[2])
		t.err[2], _ = s.edgeError(t.v[2], t.v[0])
		t.err[3] = min(t.err[0], min(t.err[1], t.err[2]))
	}
}

// cleanMesh drops tombstoned triangles (stable order), discards vertices
// no surviving triangle references, and remaps indices to the compacted
// numbering.
func (s *Simplifier) cleanMesh() {
	for i := range s.vertices {
		s.vertices[i].tcount = 0
	}

	dst := 0
	for i := range s.triangles {
		if s.triangles[i].deleted {
			continue
		}
		t := s.triangles[i]
		s.triangles[dst] = t
		dst++
		for _, vid := range t.v {
			s.vertices[vid].tcount = 1
		}
	}
	s.triangles = s.triangles[:dst]

	// tstart doubles as the remap table for surviving vertices.
	dst = 0
	for i := range s.vertices {
		if s.vertices[i].tcount == 0 {
			continue
		}
		s.vertices[i].tstart = dst
		s.vertices[dst].p = s.vertices[i].p
		dst++
	}
	for i := range s.triangles {
		for j, vid := range s.triangles[i].v {
			s.triangles[i].v[j] = uint32(s.vertices[vid].tstart)
		}
	}
	s.vertices = s.vertices[:dst]
}

// resetBools returns b resized to n with every element false.
func resetBools(b []bool, n int) []bool {
	if cap(b) < n {
		return make([]bool, n)
	}
	b = b[:n]
	for i := range b {
		b[i] = false
	}
	return b
}
