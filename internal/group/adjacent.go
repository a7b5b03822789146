package group

// Run is a maximal sequence of consecutive items sharing the same key.
type Run[K comparable, T any] struct {
	Key   K
	Items []T
}

// Adjacent splits pre-sorted items into runs. A new run starts whenever the
// key differs from the key of the current run, so equal keys that are not
// adjacent end up in separate runs.
func Adjacent[K comparable, T any](items []T, key func(T) K) []Run[K, T] {
	if len(items) == 0 {
		return nil
	}

	runs := make([]Run[K, T], 0, 4)
	for _, item := range items {
		k := key(item)
		if n := len(runs); n > 0 && runs[n-1].Key == k {
			runs[n-1].Items = append(runs[n-1].Items, item)
			continue
		}
		runs = append(runs, Run[K, T]{Key: k, Items: []T{item}})
	}
	return runs
}
