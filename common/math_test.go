package common

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestMul4Identity(t *testing.T) {
	var id, m, out [16]float32
	Identity(id[:])
	for i := range m {
		m[i] = float32(i + 1)
	}

	Mul4(out[:], id[:], m[:])
	assert.Equal(t, m, out)

	Mul4(out[:], m[:], id[:])
	assert.Equal(t, m, out)
}

func TestBuildModelMatrixTranslationAndScale(t *testing.T) {
	var m [16]float32
	BuildModelMatrix(m[:], [3]float32{1, 2, 3}, [3]float32{}, 2)

	assert.Equal(t, [16]float32{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		1, 2, 3, 1,
	}, m)
}

func TestLookAtMovesEyeToOrigin(t *testing.T) {
	var view [16]float32
	eye := [3]float32{0, 0, 5}
	LookAt(view[:], eye, [3]float32{}, [3]float32{0, 1, 0})

	// Transform the eye position: it must land on the view-space origin.
	x := view[0]*eye[0] + view[4]*eye[1] + view[8]*eye[2] + view[12]
	y := view[1]*eye[0] + view[5]*eye[1] + view[9]*eye[2] + view[13]
	z := view[2]*eye[0] + view[6]*eye[1] + view[10]*eye[2] + view[14]
	assert.InDelta(t, 0, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)
	assert.InDelta(t, 0, z, 1e-5)
}

func TestInstanceDataLayout(t *testing.T) {
	assert.Equal(t, uintptr(80), unsafe.Sizeof(InstanceData{}))

	data := []InstanceData{{Color: [4]float32{1, 0, 0, 1}}, {}}
	assert.Len(t, SliceToBytes(data), 160)
	assert.Nil(t, SliceToBytes([]InstanceData{}))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
}
