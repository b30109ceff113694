package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancedShaderIsExpanded(t *testing.T) {
	s := Instanced()

	assert.Equal(t, "instanced", s.Key())
	assert.Equal(t, "vs_main", s.VertexEntry())
	assert.Equal(t, "fs_main", s.FragmentEntry())
	assert.NotContains(t, s.Source(), annotationPrefix)
	assert.Contains(t, s.Source(), "struct FrameUniform")
	assert.Contains(t, s.Source(), "struct InstanceInput")
	assert.Contains(t, s.Source(), "@group(0) @binding(0) var<uniform> frame: FrameUniform;")

	require.Len(t, s.Declarations(), 1)
	assert.Equal(t, 0, *s.Declarations()[0].Group)
	assert.Equal(t, AnnotationArg("frame"), s.Declarations()[0].Args[1])
}

func TestProcessLeavesPlainLinesAlone(t *testing.T) {
	src := "// a comment\nfn f() {}\n"
	out, err := NewPreProcessor().Process(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestProcessReportsBadAnnotations(t *testing.T) {
	cases := map[string]string{
		"unknown type":    "//@oxy:include light",
		"unknown kind":    "//@oxy:provider 0 0 x",
		"bad group":       "//@oxy:group a 0 uniform frame frame_uniform",
		"bad space":       "//@oxy:group 0 0 push frame frame_uniform",
		"missing include": "//@oxy:include",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPreProcessor().Process("fn f() {}\n" + src)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), "line 2:"), err.Error())
		})
	}
}

func TestWithEntryPoints(t *testing.T) {
	s, err := NewShader("custom", "fn a() {}", WithEntryPoints("va", "fa"))
	require.NoError(t, err)
	assert.Equal(t, "va", s.VertexEntry())
	assert.Equal(t, "fa", s.FragmentEntry())
}
