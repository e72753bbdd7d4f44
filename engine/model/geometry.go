package model

import "github.com/go-gl/mathgl/mgl32"

// Triangle returns a single colored triangle in the XY plane.
func Triangle() Mesh {
	return NewMesh(
		WithMeshName("triangle"),
		WithPositions([]float32{
			-0.5, -0.5, 0,
			0.5, -0.5, 0,
			0, 0.5, 0,
		}),
		WithColors([]float32{
			1, 0, 0, 1,
			0, 1, 0, 1,
			0, 0, 1, 1,
		}),
	)
}

// Plane returns an indexed square of the given size in the XZ plane, facing +Y.
func Plane(size float32) Mesh {
	h := size / 2
	return NewMesh(
		WithMeshName("plane"),
		WithPositions([]float32{
			-h, 0, h,
			h, 0, h,
			h, 0, -h,
			-h, 0, -h,
		}),
		WithNormals([]float32{0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0}),
		WithTexCoords([]float32{0, 0, 1, 0, 1, 1, 0, 1}),
		WithIndices([]uint32{0, 1, 2, 0, 2, 3}),
	)
}

// cubeFaces lists the outward normal, the right axis and the up axis of each cube face.
var cubeFaces = [6][3]mgl32.Vec3{
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
}

// Cube returns an indexed unit cube centered at the origin with per-face normals and UVs.
func Cube() Mesh {
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	positions := make([]float32, 0, 24*3)
	normals := make([]float32, 0, 24*3)
	texCoords := make([]float32, 0, 24*2)
	indices := make([]uint32, 0, 36)
	for f, face := range cubeFaces {
		n, right, up := face[0], face[1], face[2]
		for i, c := range corners {
			p := n.Add(right.Mul(c[0])).Add(up.Mul(c[1])).Mul(0.5)
			positions = append(positions, p[0], p[1], p[2])
			normals = append(normals, n[0], n[1], n[2])
			texCoords = append(texCoords, uvs[i][0], uvs[i][1])
		}
		base := uint32(f * 4)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(
		WithMeshName("cube"),
		WithPositions(positions),
		WithNormals(normals),
		WithTexCoords(texCoords),
		WithIndices(indices),
	)
}
