package directive_test

import (
	"testing"

	"github.com/delaneyj/rowsignal/pkg/directive"
	"github.com/delaneyj/rowsignal/pkg/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindAppliesOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	count := reactive.Signal(f.rt, 1)

	var applied []bool
	e := directive.Bind(f.rt, func() bool {
		return count.Value()%2 == 0
	}, func(even bool) error {
		applied = append(applied, even)
		return nil
	})

	count.SetValue(3)
	count.SetValue(4)
	count.SetValue(6)
	assert.Equal(t, []bool{false, true}, applied)
	assert.Equal(t, 4, e.Runs())
}

func TestApplyBindsRowVariables(t *testing.T) {
	f := newFixture(t)
	scope := f.ar.NewScope(nil, "name")
	id, _ := scope.Own("name")
	f.ar.Set(id, "ada")

	p := f.doc.Element("p", f.doc.Element("span"))
	p.Children[0].SetAttr("x-text", "name")
	p.SetAttr("x-attr:title", "name")

	owner := f.rt.NewOwner(nil)
	require.NoError(t, f.rt.RunWithOwner(owner, func() error {
		return f.r.Apply(p, scope)
	}))
	assert.Equal(t, "ada", p.TextContent())
	title, _ := p.Attr("title")
	assert.Equal(t, "ada", title)
	assert.Equal(t, 2, owner.Effects())

	f.ar.Set(id, "grace")
	f.rt.Notify(f.ar, id)
	assert.Equal(t, "grace", p.TextContent())
	title, _ = p.Attr("title")
	assert.Equal(t, "grace", title)

	owner.Dispose()
	assert.Zero(t, f.rt.Effects())
}

func TestIgnoreSkipsSubtree(t *testing.T) {
	f := newFixture(t)
	scope := f.ar.NewScope(nil, "name")
	id, _ := scope.Own("name")
	f.ar.Set(id, "x")

	inner := f.doc.Element("span")
	inner.SetAttr("x-text", "name")
	root := f.doc.Element("pre", inner)
	root.SetAttr("x-ignore", "")

	require.NoError(t, f.r.Apply(root, scope))
	assert.Empty(t, root.TextContent())
	assert.Zero(t, f.rt.Effects())
}
