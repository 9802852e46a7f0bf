package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskdeck/internal/models"
)

func controllerWith(ids ...string) *Controller {
	var c Controller
	c.Sync(ids)
	return &c
}

func TestSyncReplacesOrder(t *testing.T) {
	c := controllerWith("a", "b", "c")
	c.Move("c", "a")
	assert.Equal(t, []string{"c", "a", "b"}, c.IDs())

	// A canonical refresh discards the manual arrangement
	c.Sync([]string{"a", "b", "c", "d"})
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.IDs())
}

func TestMoveForward(t *testing.T) {
	c := controllerWith("a", "b", "c", "d")
	assert.True(t, c.Move("a", "c"))
	assert.Equal(t, []string{"b", "c", "a", "d"}, c.IDs())
}

func TestMoveBackward(t *testing.T) {
	c := controllerWith("a", "b", "c", "d")
	assert.True(t, c.Move("d", "b"))
	assert.Equal(t, []string{"a", "d", "b", "c"}, c.IDs())
}

func TestMoveToEnd(t *testing.T) {
	c := controllerWith("a", "b", "c")
	assert.True(t, c.Move("a", "c"))
	assert.Equal(t, []string{"b", "c", "a"}, c.IDs())
}

func TestMoveNoOps(t *testing.T) {
	c := controllerWith("a", "b", "c")

	assert.False(t, c.Move("a", "a"))
	assert.False(t, c.Move("a", "zz"))
	assert.False(t, c.Move("zz", "a"))
	assert.Equal(t, []string{"a", "b", "c"}, c.IDs())
}

func TestRepeatedMoveIsStable(t *testing.T) {
	// Once the source sits at the target's prior position, repeating the same
	// move must not change anything further.
	c := controllerWith("a", "b", "c", "d")
	c.Move("d", "b")
	after := c.IDs()
	c.Move("d", "b")
	c.Move("d", "b")
	assert.Equal(t, after, c.IDs())
}

func TestOtherElementsKeepRelativeOrder(t *testing.T) {
	c := controllerWith("a", "b", "c", "d", "e")
	c.Move("b", "e")

	var rest []string
	for _, id := range c.IDs() {
		if id != "b" {
			rest = append(rest, id)
		}
	}
	assert.Equal(t, []string{"a", "c", "d", "e"}, rest)
}

func TestAt(t *testing.T) {
	c := controllerWith("a", "b")

	id, ok := c.At(1)
	assert.True(t, ok)
	assert.Equal(t, "b", id)

	_, ok = c.At(2)
	assert.False(t, ok)
	_, ok = c.At(-1)
	assert.False(t, ok)
}

func TestFilterTasksByProject(t *testing.T) {
	tasks := []models.Task{
		{ID: "t1", ProjectID: "p1"},
		{ID: "t2", ProjectID: "p2"},
		{ID: "t3", ProjectID: "p1"},
		{ID: "t4"},
	}

	assert.Len(t, FilterTasksByProject(tasks, ""), 4)

	p1 := FilterTasksByProject(tasks, "p1")
	assert.Equal(t, []string{"t1", "t3"}, TaskIDs(p1))

	assert.Empty(t, FilterTasksByProject(tasks, "p9"))
}
