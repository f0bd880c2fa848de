package dedupe

// Option configures a deduper built by NewInMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds how many pick ids are remembered. Past the bound the
// oldest id is forgotten first. A bound of 0 or less remembers every id.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
