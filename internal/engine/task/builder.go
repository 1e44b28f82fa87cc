package task

import "go.trai.ch/kiln/internal/core/domain"

// Builder declares a task tree. It is not safe for concurrent use.
type Builder struct {
	name     string
	task     Task
	children []*Builder
}

// NewBuilder starts a tree whose root is the grouping node name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// AddGroup appends a grouping child and returns its builder.
func (b *Builder) AddGroup(name string) *Builder {
	return b.AddTask(name, nil)
}

// AddTask appends a child running t and returns its builder, so grandchildren
// can be declared on the result.
func (b *Builder) AddTask(name string, t Task) *Builder {
	child := &Builder{name: name, task: t}
	b.children = append(b.children, child)
	return child
}

// Build freezes the declared nodes into a Tree. Later changes to b do not affect it.
func (b *Builder) Build() *Tree {
	tree := &Tree{
		name: domain.NewInternedString(b.name),
		task: b.task,
	}
	if len(b.children) > 0 {
		tree.children = make([]*Tree, len(b.children))
		for i, child := range b.children {
			tree.children[i] = child.Build()
		}
	}
	return tree
}
