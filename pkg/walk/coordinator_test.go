package walk_test

import (
	"errors"
	"testing"

	"github.com/delaneyj/rowsignal/pkg/walk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tree struct {
	name     string
	children []*tree
	marked   error
}

func chain(depth int) *tree {
	root := &tree{name: "0"}
	cur := root
	for i := 1; i <= depth; i++ {
		next := &tree{name: string(rune('a' + i%26))}
		cur.children = []*tree{next}
		cur = next
	}
	return root
}

type recorder struct {
	visited []string
	depths  []int
	apply   func(n *tree, depth int) (bool, error)
}

func (r *recorder) Apply(n *tree, depth int) (bool, error) {
	r.visited = append(r.visited, n.name)
	r.depths = append(r.depths, depth)
	if r.apply != nil {
		return r.apply(n, depth)
	}
	return true, nil
}

func (r *recorder) Children(n *tree) []*tree {
	return n.children
}

func (r *recorder) Mark(n *tree, err error) {
	n.marked = err
}

func TestWalkDocumentOrder(t *testing.T) {
	root := &tree{name: "root", children: []*tree{
		{name: "a", children: []*tree{{name: "a1"}, {name: "a2"}}},
		{name: "b"},
	}}
	r := &recorder{}
	c := walk.New[*tree](r)

	require.NoError(t, c.Walk(root))
	assert.Equal(t, []string{"root", "a", "a1", "a2", "b"}, r.visited)
	assert.Equal(t, []int{0, 1, 2, 2, 1}, r.depths)
	assert.Equal(t, walk.Stats{Visited: 5}, c.Stats())
}

func TestWalkDeepChainDoesNotRecurse(t *testing.T) {
	r := &recorder{}
	c := walk.New[*tree](r, walk.WithMaxDepth(200_000))
	require.NoError(t, c.Walk(chain(100_000)))
	assert.Len(t, r.visited, 100_001)
}

func TestWalkDepthLimit(t *testing.T) {
	var reported []error
	r := &recorder{}
	c := walk.New[*tree](r,
		walk.WithMaxDepth(10),
		walk.WithErrorHandler(func(err error) { reported = append(reported, err) }),
	)
	root := chain(50)
	sibling := &tree{name: "sibling"}
	c.Schedule(sibling, 0)

	err := c.Walk(root)
	var derr *walk.DepthError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 11, derr.Depth)
	assert.Equal(t, 10, derr.Limit)
	assert.Contains(t, err.Error(), "self-referential")

	marked := root
	for i := 0; i < 11; i++ {
		assert.NoError(t, marked.marked)
		marked = marked.children[0]
	}
	assert.Same(t, derr, marked.marked)

	assert.Zero(t, c.Pending(), "pending work is dropped")
	assert.NotContains(t, r.visited, "sibling")
	require.Len(t, reported, 1)
	assert.Equal(t, 1, c.Stats().Aborted)

	require.NoError(t, c.Walk(sibling), "the coordinator is reusable after an abort")
	assert.Contains(t, r.visited, "sibling")
}

func TestWalkApplyErrorsSkipSubtree(t *testing.T) {
	boom := errors.New("boom")
	root := &tree{name: "root", children: []*tree{
		{name: "bad", children: []*tree{{name: "hidden"}}},
		{name: "panics", children: []*tree{{name: "hidden-too"}}},
		{name: "good"},
	}}

	var reported []error
	r := &recorder{apply: func(n *tree, _ int) (bool, error) {
		switch n.name {
		case "bad":
			return true, boom
		case "panics":
			panic("directive blew up")
		}
		return true, nil
	}}
	c := walk.New[*tree](r, walk.WithErrorHandler(func(err error) {
		reported = append(reported, err)
	}))

	require.NoError(t, c.Walk(root))
	assert.Equal(t, []string{"root", "bad", "panics", "good"}, r.visited)
	require.Len(t, reported, 2)
	assert.ErrorIs(t, reported[0], boom)
	var aerr *walk.ApplyError
	require.ErrorAs(t, reported[1], &aerr)
	assert.Equal(t, 1, aerr.Depth)
	assert.Contains(t, aerr.Error(), "directive blew up")
	assert.Equal(t, walk.Stats{Visited: 4, Failed: 2}, c.Stats())
}

func TestWalkReentrantDrain(t *testing.T) {
	late := &tree{name: "late"}
	var c *walk.Coordinator[*tree]
	r := &recorder{}
	r.apply = func(n *tree, depth int) (bool, error) {
		if n.name == "root" {
			c.Schedule(late, depth+1)
			assert.NoError(t, c.Drain(), "nested drain defers to the outer one")
			assert.Equal(t, []string{"root"}, r.visited)
		}
		return false, nil
	}
	c = walk.New[*tree](r)

	require.NoError(t, c.Walk(&tree{name: "root"}))
	assert.Equal(t, []string{"root", "late"}, r.visited)
}
