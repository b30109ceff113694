package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-frames/engine/model"
	"github.com/Carmen-Shannon/oxy-frames/engine/renderer/gpu"
)

type opKind int

const (
	opBeginPass opKind = iota
	opSetPipeline
	opSetUniform
	opSetVertex
	opSetIndex
	opDraw
	opEndPass
)

type op struct {
	kind     opKind
	target   gpu.RenderTarget
	pipeline gpu.PipelineHandle
	buffer   gpu.Buffer
	slot     uint32
	draw     model.DrawRange
}

// Sequence is the recorded command list of one frame slot. It is immutable once built and is
// replayed into the submission encoder every time its slot is submitted.
type Sequence struct {
	// Slot is the frame slot and image index this sequence renders into.
	Slot int

	// Target is the render target the sequence was recorded against.
	Target gpu.RenderTarget

	// Draws are the draw ranges in registry order, including empty ones.
	Draws []model.DrawRange

	ops []op
}

var _ gpu.Recording = &Sequence{}

func (s *Sequence) Replay(e gpu.Encoder) error {
	for _, o := range s.ops {
		switch o.kind {
		case opBeginPass:
			if err := e.BeginPass(o.target); err != nil {
				return fmt.Errorf("slot %d: begin pass: %w", s.Slot, err)
			}
		case opSetPipeline:
			e.SetPipeline(o.pipeline)
		case opSetUniform:
			e.SetUniformBuffer(o.buffer)
		case opSetVertex:
			e.SetVertexBuffer(o.slot, o.buffer, 0)
		case opSetIndex:
			e.SetIndexBuffer(o.buffer, 0)
		case opDraw:
			d := o.draw
			e.DrawIndexed(d.IndexCount, d.InstanceCount, d.FirstIndex, d.BaseVertex, d.FirstInstance)
		case opEndPass:
			if err := e.EndPass(); err != nil {
				return fmt.Errorf("slot %d: end pass: %w", s.Slot, err)
			}
		}
	}
	return nil
}

// DrawCount returns the number of draw calls the sequence issues.
func (s *Sequence) DrawCount() int {
	n := 0
	for _, o := range s.ops {
		if o.kind == opDraw {
			n++
		}
	}
	return n
}
