package entity

import "sync"

// MediaCollection is the ordered set of entities the pipeline operates on.
// The pipeline driver owns it; stages run their own bounded-concurrency
// reads and writes against it.
type MediaCollection struct {
	mu       sync.Mutex
	entities []*MediaEntity
}

func NewMediaCollection() *MediaCollection {
	return &MediaCollection{entities: make([]*MediaEntity, 0)}
}

// Add appends an entity.
func (c *MediaCollection) Add(e *MediaEntity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities = append(c.entities, e)
}

// Len returns the number of entities.
func (c *MediaCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entities)
}

// Clear empties the collection.
func (c *MediaCollection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities = c.entities[:0]
}

// ReplaceAll atomically swaps the contents.
func (c *MediaCollection) ReplaceAll(entities []*MediaEntity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities = entities
}

// Entities returns a snapshot slice of the current contents.
func (c *MediaCollection) Entities() []*MediaEntity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*MediaEntity, len(c.entities))
	copy(out, c.entities)
	return out
}

// Remove drops the entities for which drop returns true and reports how many
// were removed.
func (c *MediaCollection) Remove(drop func(*MediaEntity) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.entities[:0]
	removed := 0
	for _, e := range c.entities {
		if drop(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.entities = kept
	return removed
}
