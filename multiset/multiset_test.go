package multiset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndGet(t *testing.T) {
	m := New[string]()
	assert.Equal(t, uint64(0), m.Get("a"))

	m.Add("a")
	m.Add("a")
	m.Add("b")

	assert.Equal(t, uint64(2), m.Get("a"))
	assert.Equal(t, uint64(1), m.Get("b"))
	assert.Equal(t, uint64(0), m.Get("c"))
}

func TestCloneIsIndependent(t *testing.T) {
	m := New[int]()
	m.Add(1)
	c := m.Clone()
	c.Add(1)

	assert.Equal(t, uint64(1), m.Get(1))
	assert.Equal(t, uint64(2), c.Get(1))
}
