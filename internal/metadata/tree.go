package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss/tree"
)

// maxTreeDepth bounds nesting; deeper path segments are kept together as
// the last label.
const maxTreeDepth = 64

type treeNode struct {
	name     string
	dir      bool
	entry    ArchiveEntry
	children map[string]*treeNode
}

func newDirNode(name string) *treeNode {
	return &treeNode{name: name, dir: true, children: make(map[string]*treeNode)}
}

// Tree renders entries as an indented tree. Each level lists directories
// before files, both sorted by name.
func Tree(entries []ArchiveEntry) string {
	root := newDirNode("")
	for _, e := range entries {
		root.insert(e)
	}

	t := tree.Root("").
		Enumerator(tree.DefaultEnumerator).
		Indenter(tree.DefaultIndenter)
	root.addChildren(t)
	return t.String()
}

func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > maxTreeDepth {
		tail := strings.Join(parts[maxTreeDepth-1:], "/")
		parts = append(parts[:maxTreeDepth-1], tail)
	}
	return parts
}

func (n *treeNode) insert(e ArchiveEntry) {
	parts := splitPath(e.Path)
	for i, name := range parts {
		last := i == len(parts)-1
		child, ok := n.children[name]
		switch {
		case !ok && (!last || e.IsDirectory):
			child = newDirNode(name)
			n.children[name] = child
		case !ok:
			child = &treeNode{name: name, entry: e}
			n.children[name] = child
		case !child.dir && !last:
			// a file and a directory share the name; the directory wins
			child.dir = true
			child.children = make(map[string]*treeNode)
		}
		n = child
	}
}

func (n *treeNode) sortedChildren() []*treeNode {
	kids := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		kids = append(kids, c)
	}
	sort.Slice(kids, func(i, j int) bool {
		if kids[i].dir != kids[j].dir {
			return kids[i].dir
		}
		return kids[i].name < kids[j].name
	})
	return kids
}

func (n *treeNode) label() string {
	if n.dir {
		return n.name + "/"
	}
	s := fmt.Sprintf("%s (%s)", n.name, FormatBytes(int64(n.entry.UncompressedSize)))
	if n.entry.IsCompressed {
		s += " [compressed]"
	}
	return s
}

// addChildren appends n's children to t, directories as subtrees.
func (n *treeNode) addChildren(t *tree.Tree) {
	for _, c := range n.sortedChildren() {
		if !c.dir {
			t.Child(c.label())
			continue
		}
		sub := tree.Root(c.label())
		c.addChildren(sub)
		t.Child(sub)
	}
}
