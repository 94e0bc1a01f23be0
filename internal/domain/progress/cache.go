package progress

// Cache stores per-day totals. MarkDirty invalidates every entry; Set is
// ignored when the generation it was computed under is no longer current.
type Cache interface {
	Get(key string) (Totals, bool)
	Set(key string, generation uint64, totals Totals)
	Generation() uint64
	MarkDirty()
}

type noopCache struct{}

func (noopCache) Get(string) (Totals, bool) {
	return Totals{}, false
}

func (noopCache) Set(string, uint64, Totals) {}

func (noopCache) Generation() uint64 {
	return 0
}

func (noopCache) MarkDirty() {}
