// cache.go - the FIFO-replacement, snoop-invalidated tag-array cache shared
// by ObjectCache, ArrayCache and MethodCache

package jop

// fifoCache is a direct generic cache keyed by an arbitrary 32-bit tag
// (object handle, array handle, or method pointer), with strict FIFO line
// replacement and a snoop-invalidation path for cross-core coherence.
type fifoCache struct {
	lines    []cacheLine
	lineWord []uint32 // words per line
	fifoNext int       // next victim line index

	fillIdx     int // line currently being filled, -1 if none
	fillTag     uint32
	snoopedFill bool // a snoop hit the in-flight fill's tag: suppress the commit
}

type cacheLine struct {
	valid bool
	tag   uint32
	data  []uint32
}

func newFifoCache(lines int, wordsPerLine int) *fifoCache {
	c := &fifoCache{lineWord: make([]uint32, wordsPerLine), fillIdx: -1}
	c.lines = make([]cacheLine, lines)
	for i := range c.lines {
		c.lines[i].data = make([]uint32, wordsPerLine)
	}
	return c
}

// Lookup reports whether tag is resident and, if so, its line data.
func (c *fifoCache) Lookup(tag uint32) ([]uint32, bool) {
	for i := range c.lines {
		if c.lines[i].valid && c.lines[i].tag == tag {
			return c.lines[i].data, true
		}
	}
	return nil, false
}

// StartFill begins installing tag into the next FIFO victim line.
func (c *fifoCache) StartFill(tag uint32) {
	c.fillIdx = c.fifoNext
	c.fillTag = tag
	c.snoopedFill = false
}

// CommitFill finishes an in-flight fill with the data read from memory,
// unless a snoop invalidated this exact tag while the fill was in flight
// (the "updateCache := 0 when snoopDuringFill" coherence rule).
func (c *fifoCache) CommitFill(data []uint32) {
	if c.fillIdx < 0 {
		return
	}
	if !c.snoopedFill {
		line := &c.lines[c.fillIdx]
		line.valid = true
		line.tag = c.fillTag
		copy(line.data, data)
		c.fifoNext = (c.fillIdx + 1) % len(c.lines)
	}
	c.fillIdx = -1
}

// Invalidate drops any line matching tag (another core's write, or an
// explicit MemInvalidate operation). If a fill for the same tag is
// currently in flight, the fill is marked to be discarded on commit.
func (c *fifoCache) Invalidate(tag uint32) {
	for i := range c.lines {
		if c.lines[i].valid && c.lines[i].tag == tag {
			c.lines[i].valid = false
		}
	}
	if c.fillIdx >= 0 && c.fillTag == tag {
		c.snoopedFill = true
	}
}

func (c *fifoCache) InvalidateAll() {
	for i := range c.lines {
		c.lines[i].valid = false
	}
	c.fillIdx = -1
}

// ObjectCache, ArrayCache and MethodCache are the three named cache
// instances; all three share fifoCache's semantics and only differ in the
// tag space they index (object handle, array handle, or method pointer) and
// line width.
type ObjectCache struct{ *fifoCache }
type ArrayCache struct{ *fifoCache }
type MethodCache struct{ *fifoCache }

func NewObjectCache(lines, wordsPerLine int) *ObjectCache { return &ObjectCache{newFifoCache(lines, wordsPerLine)} }
func NewArrayCache(lines, wordsPerLine int) *ArrayCache    { return &ArrayCache{newFifoCache(lines, wordsPerLine)} }
func NewMethodCache(lines, wordsPerLine int) *MethodCache  { return &MethodCache{newFifoCache(lines, wordsPerLine)} }
