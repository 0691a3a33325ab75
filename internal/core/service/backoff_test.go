package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoubles(t *testing.T) {

	b := NewBackoff(10*time.Second, 5*time.Minute)

	assert.Equal(t, 10*time.Second, b.Current())
	assert.Equal(t, 20*time.Second, b.Fail())
	assert.Equal(t, 40*time.Second, b.Fail())
	assert.Equal(t, 80*time.Second, b.Fail())
}

func TestBackoffCap(t *testing.T) {

	b := NewBackoff(4*time.Minute, 5*time.Minute)

	// 8 minutes would exceed the cap
	assert.Equal(t, 5*time.Minute, b.Fail())
	assert.Equal(t, 5*time.Minute, b.Fail())
}

func TestBackoffResetOnSuccess(t *testing.T) {

	b := NewBackoff(10*time.Second, 5*time.Minute)

	b.Fail()
	assert.True(t, b.Reset(), "reset after backoff reports a change")
	assert.Equal(t, 10*time.Second, b.Current())

	assert.False(t, b.Reset(), "reset at base is a no-op")
}

func TestBackoffSetBase(t *testing.T) {

	b := NewBackoff(10*time.Second, 5*time.Minute)
	b.Fail()

	b.SetBase(30 * time.Second)
	assert.Equal(t, 30*time.Second, b.Current())
	assert.Equal(t, 60*time.Second, b.Fail())
}
