package querypath

import "container/list"

type lruEntry struct {
	key   string
	value any
}

type lruCache struct {
	items map[string]*list.Element
	order *list.List
	size  int
}

func newLruCache(size int) *lruCache {
	return &lruCache{
		items: make(map[string]*list.Element, size),
		order: list.New(),
		size:  size,
	}
}

func (c *lruCache) add(key string, value any) {
	if c.size <= 0 {
		return
	}
	if elem, ok := c.items[key]; ok {
		elem.Value = lruEntry{key: key, value: value}
		c.order.MoveToBack(elem)
		return
	}
	elem := c.order.PushBack(lruEntry{key: key, value: value})
	c.items[key] = elem
	c.evict()
}

func (c *lruCache) get(key string) (any, bool) {
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToBack(elem)
	return elem.Value.(lruEntry).value, true
}

func (c *lruCache) len() int {
	return len(c.items)
}

func (c *lruCache) clear() {
	c.items = make(map[string]*list.Element, c.size)
	c.order.Init()
}

// setSize shrinks the cache right away when the new size is smaller.
func (c *lruCache) setSize(size int) {
	c.size = size
	c.evict()
}

func (c *lruCache) evict() {
	for len(c.items) > max(c.size, 0) {
		front := c.order.Front()
		c.order.Remove(front)
		delete(c.items, front.Value.(lruEntry).key)
	}
}
