// Package dom is a small in-memory node tree that stands in for a real
// rendering backend. It counts every structural mutation so callers can assert
// on how much work a patch did.
package dom

import (
	"errors"
	"html"
	"slices"
	"sort"
	"strings"
)

type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

var (
	ErrNotChild  = errors.New("dom: node is not a child of this parent")
	ErrHierarchy = errors.New("dom: node cannot contain itself")
	ErrNotParent = errors.New("dom: only elements have children")
)

// Ops counts mutations made through one Document.
type Ops struct {
	Created  int
	Inserted int
	Moved    int
	Removed  int
	Texts    int
	Attrs    int
}

// Document creates nodes and owns their mutation counters.
type Document struct {
	nextID uint64
	ops    Ops
}

func NewDocument() *Document {
	return &Document{}
}

func (d *Document) Ops() Ops {
	return d.ops
}

func (d *Document) ResetOps() {
	d.ops = Ops{}
}

type Node struct {
	Kind     Kind
	Tag      string
	Text     string
	Parent   *Node
	Children []*Node

	id    uint64
	doc   *Document
	attrs map[string]string
}

func (d *Document) node(kind Kind) *Node {
	d.nextID++
	d.ops.Created++
	return &Node{Kind: kind, id: d.nextID, doc: d}
}

// Element creates a detached element with the given children appended.
func (d *Document) Element(tag string, children ...*Node) *Node {
	n := d.node(KindElement)
	n.Tag = tag
	for _, c := range children {
		if c != nil {
			n.InsertBefore(c, nil)
		}
	}
	return n
}

func (d *Document) Text(s string) *Node {
	n := d.node(KindText)
	n.Text = s
	return n
}

func (d *Document) Comment(s string) *Node {
	n := d.node(KindComment)
	n.Text = s
	return n
}

func (n *Node) ID() uint64 {
	return n.id
}

// InsertBefore attaches child to n in front of before, or last when before is
// nil. A child that already has a parent is moved.
func (n *Node) InsertBefore(child, before *Node) error {
	if n.Kind != KindElement {
		return ErrNotParent
	}
	if before != nil && before.Parent != n {
		return ErrNotChild
	}
	for p := n; p != nil; p = p.Parent {
		if p == child {
			return ErrHierarchy
		}
	}
	if child == before {
		return nil
	}

	moved := child.Parent == n
	if child.Parent != nil {
		child.Parent.detach(child)
	}
	at := len(n.Children)
	if before != nil {
		at = slices.Index(n.Children, before)
	}
	n.Children = slices.Insert(n.Children, at, child)
	child.Parent = n

	if moved {
		n.doc.ops.Moved++
	} else {
		n.doc.ops.Inserted++
	}
	return nil
}

func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

func (n *Node) RemoveChild(child *Node) error {
	if child.Parent != n {
		return ErrNotChild
	}
	n.detach(child)
	n.doc.ops.Removed++
	return nil
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func (n *Node) detach(child *Node) {
	if i := slices.Index(n.Children, child); i >= 0 {
		n.Children = slices.Delete(n.Children, i, i+1)
	}
	child.Parent = nil
}

// Index is n's position among its siblings, or -1 when detached.
func (n *Node) Index() int {
	if n.Parent == nil {
		return -1
	}
	return slices.Index(n.Parent.Children, n)
}

func (n *Node) SetText(s string) {
	switch {
	case n.Kind != KindElement:
		n.Text = s
	case len(n.Children) == 1 && n.Children[0].Kind == KindText:
		n.Children[0].Text = s
	default:
		for _, c := range slices.Clone(n.Children) {
			n.RemoveChild(c)
		}
		n.AppendChild(n.doc.Text(s))
	}
	n.doc.ops.Texts++
}

// TextContent concatenates every text node below n.
func (n *Node) TextContent() string {
	if n.Kind != KindElement {
		if n.Kind == KindText {
			return n.Text
		}
		return ""
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

func (n *Node) SetAttr(name, value string) {
	if n.attrs == nil {
		n.attrs = map[string]string{}
	}
	n.attrs[name] = value
	n.doc.ops.Attrs++
}

func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) RemoveAttr(name string) {
	if _, ok := n.attrs[name]; ok {
		delete(n.attrs, name)
		n.doc.ops.Attrs++
	}
}

// AttrNames lists n's attribute names sorted.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QueryAll returns every node below n, n included, that match accepts, in
// document order.
func (n *Node) QueryAll(match func(*Node) bool) []*Node {
	var out []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if match(cur) {
			out = append(out, cur)
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}

// Query returns the first match of QueryAll or nil.
func (n *Node) Query(match func(*Node) bool) *Node {
	if all := n.QueryAll(match); len(all) > 0 {
		return all[0]
	}
	return nil
}

func ByTag(tag string) func(*Node) bool {
	return func(n *Node) bool {
		return n.Kind == KindElement && n.Tag == tag
	}
}

func ByAttr(name string) func(*Node) bool {
	return func(n *Node) bool {
		_, ok := n.attrs[name]
		return ok
	}
}

// String renders n as markup with sorted attributes.
func (n *Node) String() string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}

func (n *Node) render(sb *strings.Builder) {
	switch n.Kind {
	case KindText:
		sb.WriteString(html.EscapeString(n.Text))
	case KindComment:
		sb.WriteString("<!--")
		sb.WriteString(n.Text)
		sb.WriteString("-->")
	default:
		sb.WriteByte('<')
		sb.WriteString(n.Tag)
		for _, name := range n.AttrNames() {
			sb.WriteByte(' ')
			sb.WriteString(name)
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(n.attrs[name]))
			sb.WriteByte('"')
		}
		sb.WriteByte('>')
		for _, c := range n.Children {
			c.render(sb)
		}
		sb.WriteString("</")
		sb.WriteString(n.Tag)
		sb.WriteByte('>')
	}
}
