package grad

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/arcastrip/internal/fx"
)

func TestRainbow(t *testing.T) {
	g := New("rainbow")
	dst := make([]fx.Color, 6)
	g.Render(dst, 0, &fx.Uniforms{})
	assert.Equal(t, fx.Color{R: 1}, dst[0])
	assert.Equal(t, fx.Color{G: 1, B: 1}, dst[3])

	// Time rotates the hue.
	later := make([]fx.Color, 6)
	g.Render(later, 1, &fx.Uniforms{Speed: 1})
	assert.NotEqual(t, dst[0], later[0])
}
