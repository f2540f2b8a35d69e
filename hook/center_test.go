package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pass(_ context.Context, _ string, d interface{}) (interface{}, error) { return d, nil }

func TestTrigger_NoHandlers(t *testing.T) {
	c := NewCenter()
	out, err := c.Trigger(context.Background(), AfterTick, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestTrigger_NilCenter(t *testing.T) {
	var c *Center
	assert.False(t, c.Has(AfterTick))
	out, err := c.Trigger(context.Background(), AfterTick, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestTrigger_DataPassThrough(t *testing.T) {
	c := NewCenter()
	c.Register("ev", 0, "double", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		return data.(int) * 2, nil
	})
	c.Register("ev", 1, "addTen", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		return data.(int) + 10, nil
	})
	out, err := c.Trigger(context.Background(), "ev", 5)
	require.NoError(t, err)
	assert.Equal(t, 20, out) // (5*2)+10
}

func TestTrigger_PriorityOrder(t *testing.T) {
	c := NewCenter()
	var order []string
	record := func(name string) Fn {
		return func(_ context.Context, _ string, d interface{}) (interface{}, error) {
			order = append(order, name)
			return d, nil
		}
	}
	c.Register("ev", 10, "high", record("high"))
	c.Register("ev", 1, "low", record("low"))
	c.Register("ev", 5, "mid-a", record("mid-a"))
	c.Register("ev", 5, "mid-b", record("mid-b"))
	_, _ = c.Trigger(context.Background(), "ev", nil)
	assert.Equal(t, []string{"low", "mid-a", "mid-b", "high"}, order)
}

func TestTrigger_ErrInterrupt(t *testing.T) {
	c := NewCenter()
	var secondCalled bool
	c.Register("ev", 0, "stopper", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return d, ErrInterrupt
	})
	c.Register("ev", 1, "should_not_run", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		secondCalled = true
		return d, nil
	})
	_, err := c.Trigger(context.Background(), "ev", nil)
	assert.ErrorIs(t, err, ErrInterrupt)
	assert.False(t, secondCalled)
}

func TestTrigger_OtherErrorsContinue(t *testing.T) {
	c := NewCenter()
	boom := errors.New("boom")
	c.Register("ev", 0, "fails", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return "ignored", boom
	})
	c.Register("ev", 1, "runs", func(_ context.Context, _ string, d interface{}) (interface{}, error) {
		return d.(string) + "!", nil
	})
	out, err := c.Trigger(context.Background(), "ev", "hi")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "hi!", out, "failed handler output is discarded")
}

func TestUnregister(t *testing.T) {
	c := NewCenter()
	c.Register(AfterTick, 0, "a", pass)
	c.Register(AfterTick, 0, "b", pass)
	c.Register(OnCapture, 0, "a", pass)

	c.Unregister(AfterTick, "a")
	assert.True(t, c.Has(AfterTick))
	assert.True(t, c.Has(OnCapture))

	c.UnregisterAll("a")
	assert.False(t, c.Has(OnCapture))
	assert.True(t, c.Has(AfterTick))

	c.Unregister(AfterTick, "b")
	assert.False(t, c.Has(AfterTick))
}
