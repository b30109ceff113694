package shader

import (
	_ "embed"
	"fmt"
)

//go:embed assets/instanced.wgsl
var instancedSource string

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	vertexEntry   string
	fragmentEntry string
	declarations  []Annotation
}

// Shader is a pre-processed WGSL module with a vertex and a fragment entry point.
type Shader interface {
	// Key returns the unique identifier of the shader.
	Key() string

	// Source returns the pre-processed WGSL source.
	Source() string

	// VertexEntry returns the name of the vertex entry point.
	VertexEntry() string

	// FragmentEntry returns the name of the fragment entry point.
	FragmentEntry() string

	// Declarations returns the binding declarations generated while pre-processing.
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes annotated WGSL source into a Shader.
//
// Parameters:
//   - key: the unique identifier for the shader
//   - source: the annotated WGSL source
//   - options: variadic list of ShaderBuilderOption functions
//
// Returns:
//   - Shader: the processed shader
//   - error: an error if pre-processing fails
func NewShader(key, source string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		key:           key,
		vertexEntry:   "vs_main",
		fragmentEntry: "fs_main",
	}
	for _, opt := range options {
		opt(s)
	}

	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %q: %w", key, err)
	}
	s.source = processed
	s.declarations = append([]Annotation(nil), pp.Declarations()...)
	return s, nil
}

// Instanced returns the built-in shader that draws instanced meshes with a per-slot projection-view
// uniform at group 0 binding 0, mesh positions at vertex slot 0 and instance records at slot 1.
func Instanced() Shader {
	s, err := NewShader("instanced", instancedSource)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntry() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntry() string {
	return s.fragmentEntry
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
