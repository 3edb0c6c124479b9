// meshtool is a CLI utility for inspecting and processing triangle meshes.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/meshstudio/pkg/formats"
	"github.com/Faultbox/meshstudio/pkg/mesh"
	"github.com/Faultbox/meshstudio/pkg/remesh"
	"github.com/Faultbox/meshstudio/pkg/simplify"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "simplify":
		cmdSimplify(args)
	case "split":
		cmdSplit(args)
	case "convert":
		cmdConvert(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - triangle mesh utility

Usage:
  meshtool <command> [options]

Commands:
  info <mesh>                         Show mesh statistics
  simplify <in> <out> [-ratio r]      Decimate a mesh (quadric error metric)
  split <in> <out> [-n passes]        Uniformly subdivide a mesh
  convert <in> <out>                  Convert between mesh formats

Supported formats: STL, PLY, OBJ (read); STL, PLY (write)

Examples:
  meshtool info bunny.stl
  meshtool simplify bunny.stl small.stl -ratio 0.25
  meshtool split box.stl dense.ply -n 2
  meshtool convert scan.obj scan.ply`)
}

func loadMesh(path string) *mesh.Mesh {
	m, err := formats.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return m
}

func saveMesh(path string, m *mesh.Mesh) {
	if err := formats.Save(path, m); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool info <mesh>")
		os.Exit(1)
	}

	m := loadMesh(args[0])
	min, max := m.BoundingBox()
	size := max.Sub(min)
	c := m.Centroid()

	fmt.Printf("Mesh:      %s\n", args[0])
	fmt.Printf("Vertices:  %d\n", len(m.Positions))
	fmt.Printf("Triangles: %d\n", m.TriangleCount())
	fmt.Printf("Bounds:    (%.4g, %.4g, %.4g) .. (%.4g, %.4g, %.4g)\n",
		min.X, min.Y, min.Z, max.X, max.Y, max.Z)
	fmt.Printf("Size:      %.4g x %.4g x %.4g\n", size.X, size.Y, size.Z)
	fmt.Printf("Centroid:  (%.4g, %.4g, %.4g)\n", c.X, c.Y, c.Z)
}

func cmdSimplify(args []string) {
	fs := flag.NewFlagSet("simplify", flag.ExitOnError)
	ratio := fs.Float64("ratio", 0.5, "Fraction of triangles to keep (0..1)")
	target := fs.Int("target", 0, "Exact triangle target (overrides -ratio)")
	aggressiveness := fs.Float64("aggressiveness", 7, "Threshold growth rate between passes")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool simplify <in> <out> [-ratio r | -target n] [-aggressiveness a]")
		os.Exit(1)
	}

	m := loadMesh(fs.Arg(0))
	before := m.TriangleCount()

	n := *target
	if n <= 0 {
		if *ratio <= 0 || *ratio > 1 {
			fmt.Fprintln(os.Stderr, "Error: -ratio must be in (0, 1]")
			os.Exit(1)
		}
		n = int(float64(before) * *ratio)
	}

	out, err := simplify.Simplify(m, n, *aggressiveness)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	saveMesh(fs.Arg(1), out)

	fmt.Printf("Simplified: %d -> %d triangles (target %d)\n", before, out.TriangleCount(), n)
}

func cmdSplit(args []string) {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	passes := fs.Int("n", 1, "Number of subdivision passes")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool split <in> <out> [-n passes]")
		os.Exit(1)
	}
	if *passes < 0 {
		fmt.Fprintln(os.Stderr, "Error: -n must be non-negative")
		os.Exit(1)
	}

	m := loadMesh(fs.Arg(0))
	before := m.TriangleCount()

	if err := remesh.Split(m, *passes); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	saveMesh(fs.Arg(1), m)

	fmt.Printf("Subdivided: %d -> %d triangles (%d passes)\n", before, m.TriangleCount(), *passes)
}

func cmdConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: meshtool convert <in> <out>")
		os.Exit(1)
	}

	m := loadMesh(fs.Arg(0))
	saveMesh(fs.Arg(1), m)

	fmt.Printf("Converted: %s -> %s (%d triangles)\n", fs.Arg(0), fs.Arg(1), m.TriangleCount())
}
