package vnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropsCoercion(t *testing.T) {
	p := Props{"width": float64(40), "label": "hi", "disabled": "true"}
	assert.Equal(t, 40, p.Int("width", 0))
	assert.Equal(t, "hi", p.String("label", ""))
	assert.True(t, p.Bool("disabled", false))
	assert.Equal(t, "fallback", p.String("missing", "fallback"))
}

func TestKindClassification(t *testing.T) {
	assert.True(t, Row.IsContainer())
	assert.False(t, Row.IsCollection())
	assert.True(t, Table.IsCollection())
	assert.False(t, Text.IsContainer())
}

func TestNodeKeyAndDisabled(t *testing.T) {
	n := Node{Kind: Button, Props: Props{"key": "tab:/a", "disabled": true}}
	assert.Equal(t, "tab:/a", n.Key())
	assert.True(t, n.Disabled())
}
