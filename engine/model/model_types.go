package model

import "github.com/go-gl/mathgl/mgl32"

// Transform is a decomposed model transform.
type Transform struct {
	// Translation is the position offset.
	Translation mgl32.Vec3

	// Rotation is the orientation quaternion.
	Rotation mgl32.Quat

	// Scale is the scale factor along each axis.
	Scale mgl32.Vec3
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix composes translation * rotation * scale.
//
// Returns:
//   - mgl32.Mat4: the model matrix
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// NormalMatrix returns the inverse transpose of the upper-left 3x3 of the model matrix.
//
// Returns:
//   - mgl32.Mat3: the normal matrix
func (t Transform) NormalMatrix() mgl32.Mat3 {
	return t.Matrix().Mat3().Inv().Transpose()
}
