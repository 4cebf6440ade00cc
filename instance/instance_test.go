package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAllocatorMonotonic(t *testing.T) {
	var a IDAllocator
	ids := []uint64{a.Next(), a.Next(), a.Next()}
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestUseStateSkipsEqualValue(t *testing.T) {
	c := NewCompositeState()
	c.BeginRender()
	_, setCount := c.UseState(0)

	invalidatedBefore := c.NeedsRender()
	setCount(0)
	assert.False(t, invalidatedBefore)
	assert.False(t, c.NeedsRender(), "same value must not invalidate")

	setCount(1)
	assert.True(t, c.NeedsRender())
}

func TestUseStatePreservesAcrossRenders(t *testing.T) {
	c := NewCompositeState()
	c.BeginRender()
	v, set := c.UseState(10)
	require.Equal(t, 10, v)
	set(20)

	c.BeginRender()
	v2, _ := c.UseState(10) // init ignored on reuse
	assert.Equal(t, 20, v2)
}

func TestUseEffectRunsOnceWithEmptyDeps(t *testing.T) {
	c := NewCompositeState()
	runs := 0
	for i := 0; i < 3; i++ {
		c.BeginRender()
		c.UseEffect(func() func() { runs++; return nil }, []interface{}{})
		for _, idx := range c.TakePendingEffects() {
			c.RunEffect(idx)
		}
	}
	assert.Equal(t, 1, runs)
}

func TestUseEffectReRunsOnDepChangeAndCleansUpFirst(t *testing.T) {
	c := NewCompositeState()
	var order []string
	dep := 1
	run := func() {
		c.BeginRender()
		d := dep
		c.UseEffect(func() func() {
			order = append(order, "effect")
			return func() { order = append(order, "cleanup") }
		}, []interface{}{float64(d)})
		for _, cl := range c.TakePendingCleanups() {
			cl()
		}
		for _, idx := range c.TakePendingEffects() {
			c.RunEffect(idx)
		}
	}
	run()
	dep = 2
	run()
	assert.Equal(t, []string{"effect", "cleanup", "effect"}, order)
}

func TestUseEffectNilDepsRunsEveryRender(t *testing.T) {
	c := NewCompositeState()
	runs := 0
	for i := 0; i < 3; i++ {
		c.BeginRender()
		c.UseEffect(func() func() { runs++; return nil }, nil)
		for _, idx := range c.TakePendingEffects() {
			c.RunEffect(idx)
		}
	}
	assert.Equal(t, 3, runs)
}

func TestUseMemoRecomputesOnlyOnDepChange(t *testing.T) {
	c := NewCompositeState()
	computes := 0
	compute := func() interface{} { computes++; return "v" }

	c.BeginRender()
	c.UseMemo(compute, []interface{}{float64(1)})
	c.BeginRender()
	c.UseMemo(compute, []interface{}{float64(1)})
	c.BeginRender()
	c.UseMemo(compute, []interface{}{float64(2)})

	assert.Equal(t, 2, computes)
}

func TestUseRefSurvivesRenders(t *testing.T) {
	c := NewCompositeState()
	c.BeginRender()
	r := c.UseRef(0)
	r.Set(42)

	c.BeginRender()
	r2 := c.UseRef(0)
	assert.Equal(t, 42, r2.Get())
}

func TestAllCleanupsReverseOrder(t *testing.T) {
	c := NewCompositeState()
	c.BeginRender()
	var order []string
	c.UseEffect(func() func() { return func() { order = append(order, "first") } }, []interface{}{})
	c.UseEffect(func() func() { return func() { order = append(order, "second") } }, []interface{}{})
	for _, idx := range c.TakePendingEffects() {
		c.RunEffect(idx)
	}
	cleanups := c.AllCleanups()
	assert.Len(t, cleanups, 2)
	for _, cleanup := range cleanups {
		cleanup()
	}
	assert.Equal(t, []string{"second", "first"}, order)
}
