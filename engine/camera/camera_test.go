package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestViewMovesTargetToNegativeZ(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{0, 0, 10}))
	p := c.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -10, p[2], 1e-5)
	assert.Equal(t, mgl32.Vec3{0, 0, 10}, c.Position())
}

func TestSettersRecomputeMatrices(t *testing.T) {
	c := NewCamera()
	before := c.Projection()
	c.SetAspect(2)
	assert.NotEqual(t, before, c.Projection())
	assert.Equal(t, c.Projection().Mul4(c.View()), c.ViewProjection())

	c.LookAt(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{})
	p := c.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, -5, p[2], 1e-5)

	c.SetClip(1, 50)
	assert.Equal(t, float32(1), c.Near())
	assert.Equal(t, float32(50), c.Far())
}
