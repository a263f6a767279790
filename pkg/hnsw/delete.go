package hnsw

// Delete soft-deletes id: the external-to-internal mapping is removed
// so Search's post-filter drops it, but the node and its vector stay in
// the graph — edges through it remain valid for traversal by other
// still-live points. Returns false if id was not present.
func (g *Graph) Delete(id uint64) bool {
	if _, ok := g.mappings.ExternalToInternal(id); !ok {
		return false
	}
	g.mappings.Unmap(id)
	g.incLive(-1)
	g.incDeleted(1)
	return true
}
