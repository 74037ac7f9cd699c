package quant

import (
	"log"

	"github.com/bodgit/imago"
)

const numLevels = 8

// Arena index of a node. The root is always node 0 so zero doubles as "no
// node" in child slots and list links.
type nodeRef int32

const nilNode nodeRef = 0

type node struct {
	level   int
	r, g, b int
	refs    int
	palette int
	leaf    bool
	child   [8]nodeRef
	next    nodeRef // reducible list, or free list once released
}

type octree struct {
	nodes []node
	free  nodeRef

	// Nodes that can be reduced, one list per level. New nodes are pushed
	// on the front.
	lists [numLevels]nodeRef
	level int

	leaves int
	logger *log.Logger
}

func newOctree(logger *log.Logger) *octree {
	t := &octree{
		level:  numLevels - 1,
		logger: logger,
	}
	for i := range t.lists {
		t.lists[i] = -1
	}
	t.free = -1

	// The root has no list link pointing at it, reserve slot 0 for it
	t.nodes = append(t.nodes, node{})
	t.initNode(0, 0)
	return t
}

func (t *octree) alloc(level int) nodeRef {
	n := t.free
	if n >= 0 {
		t.free = t.nodes[n].next
	} else {
		n = nodeRef(len(t.nodes))
		t.nodes = append(t.nodes, node{})
	}
	t.initNode(n, level)
	return n
}

func (t *octree) initNode(n nodeRef, level int) {
	t.nodes[n] = node{
		level:   level,
		palette: -1,
		next:    -1,
	}
	if level < t.level {
		t.nodes[n].next = t.lists[level]
		t.lists[level] = n
	} else {
		t.nodes[n].leaf = true
		t.leaves++
	}
}

// release returns a leaf to the free list
func (t *octree) release(n nodeRef) {
	if t.nodes[n].leaf {
		t.leaves--
	}
	t.nodes[n] = node{next: t.free}
	t.free = n
}

func branch(level int, r, g, b uint8) int {
	shift := uint(numLevels - 1 - level)
	return int(r>>shift&1) | int(g>>shift&1)<<1 | int(b>>shift&1)<<2
}

func (t *octree) add(r, g, b uint8) {
	n := nilNode
	for level := 0; ; level++ {
		nd := &t.nodes[n]
		nd.r += int(r)
		nd.g += int(g)
		nd.b += int(b)
		nd.refs++

		if nd.leaf || level == numLevels {
			return
		}

		i := branch(level, r, g, b)
		c := nd.child[i]
		if c == nilNode {
			// alloc may grow the arena, nd is not valid afterwards
			c = t.alloc(level + 1)
			t.nodes[n].child[i] = c
		}
		n = c
	}
}

// reducible removes and returns the least referenced node of the deepest
// level that still has one. The first of equally referenced nodes wins.
func (t *octree) reducible() (nodeRef, bool) {
	for ; t.level >= 0; t.level-- {
		best, bestPrev := nodeRef(-1), nodeRef(-1)
		bestRefs := int(^uint(0) >> 1)

		prev := nodeRef(-1)
		for n := t.lists[t.level]; n >= 0; prev, n = n, t.nodes[n].next {
			if t.nodes[n].refs < bestRefs {
				best, bestPrev, bestRefs = n, prev, t.nodes[n].refs
			}
		}
		if best < 0 {
			continue
		}

		if bestPrev < 0 {
			t.lists[t.level] = t.nodes[best].next
		} else {
			t.nodes[bestPrev].next = t.nodes[best].next
		}
		t.nodes[best].next = -1
		return best, true
	}
	return nilNode, false
}

// reduce merges the children of one node into it, reporting false if no
// node could be reduced
func (t *octree) reduce() bool {
	n, ok := t.reducible()
	if !ok {
		t.logger.Println("No reducible nodes left with", t.leaves, "leaves")
		return false
	}

	for i, c := range t.nodes[n].child {
		if c != nilNode {
			t.release(c)
			t.nodes[n].child[i] = nilNode
		}
	}
	t.nodes[n].leaf = true
	t.leaves++
	return true
}

// assign walks the tree depth first giving each leaf the next palette
// index and returns the index after the last one used
func (t *octree) assign(n nodeRef, next int, pal *imago.Palette) int {
	nd := &t.nodes[n]
	if nd.leaf {
		if next >= imago.PaletteSize || nd.refs == 0 {
			return next
		}
		pal.Colors[next] = imago.Color{
			R: uint8(nd.r / nd.refs),
			G: uint8(nd.g / nd.refs),
			B: uint8(nd.b / nd.refs),
		}
		nd.palette = next
		return next + 1
	}

	for _, c := range nd.child {
		if c != nilNode {
			next = t.assign(c, next, pal)
		}
	}
	return next
}

// lookup returns the palette index for a color. When the ideal branch is
// missing the next present sibling in rotation is followed instead, so the
// result is close to but not always the nearest palette color.
func (t *octree) lookup(r, g, b uint8) int {
	n := nilNode
	for level := 0; level <= numLevels; level++ {
		nd := &t.nodes[n]
		if nd.leaf {
			if nd.palette < 0 {
				return 0
			}
			return nd.palette
		}

		i := branch(level, r, g, b)
		for j := 0; j < 8 && nd.child[i] == nilNode; j++ {
			i = (i + 1) & 7
		}
		if nd.child[i] == nilNode {
			return 0
		}
		n = nd.child[i]
	}
	return 0
}
