package game_object

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject()

	assert.Equal(t, model.KindCube, obj.Kind())
	assert.True(t, obj.Enabled())
	assert.Equal(t, float32(0.5), obj.Scale())
	assert.Equal(t, [4]float32{1, 1, 1, 1}, obj.Color())
}

func TestInstanceDataCarriesTransformAndColor(t *testing.T) {
	obj := NewSquare([3]float32{1, 2, 3}, [3]float32{1, 0, 0}, WithScale(2))

	data := obj.InstanceData()
	assert.Equal(t, [4]float32{1, 0, 0, 1}, data.Color)
	assert.Equal(t, float32(2), data.Model[0])
	assert.Equal(t, float32(2), data.Model[5])
	assert.Equal(t, float32(2), data.Model[10])
	assert.Equal(t, [3]float32{1, 2, 3}, [3]float32{data.Model[12], data.Model[13], data.Model[14]})

	obj.SetPosition(4, 5, 6)
	data = obj.InstanceData()
	assert.Equal(t, [3]float32{4, 5, 6}, [3]float32{data.Model[12], data.Model[13], data.Model[14]})
}

func TestMutationsRunChangeHook(t *testing.T) {
	obj := NewCube([3]float32{}, [3]float32{0, 1, 0})
	calls := 0
	obj.SetChangeHook(func() { calls++ })

	obj.SetPosition(1, 0, 0)
	obj.SetRotation(0, 1, 0)
	obj.SetScale(0.25)
	obj.SetColor(0, 0, 1, 1)
	obj.SetEnabled(false)
	obj.SetEnabled(false)
	assert.Equal(t, 5, calls, "a no-op enable does not notify")

	obj.SetChangeHook(nil)
	obj.SetPosition(2, 0, 0)
	assert.Equal(t, 5, calls)
}

func TestAdvanceAppliesRotationSpeed(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(0, 1, 0))
	changed := 0
	obj.SetChangeHook(func() { changed++ })

	assert.True(t, obj.Advance(500*time.Millisecond))
	assert.InDelta(t, 0.5, obj.Rotation()[1], 1e-6)
	assert.Equal(t, 1, changed)

	still := NewGameObject()
	assert.False(t, still.Advance(time.Second))
}

func TestAdvanceWrapsAngles(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(4, 0, 0))
	for range 100 {
		obj.Advance(time.Second)
	}
	rx := obj.Rotation()[0]
	assert.GreaterOrEqual(t, rx, float32(-math32.Pi))
	assert.Less(t, rx, float32(math32.Pi))
}
