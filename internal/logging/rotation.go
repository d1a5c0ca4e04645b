package logging

// Retention bounds of the log file.
const (
	// Capacity is the number of lines kept after a truncation.
	Capacity = 8192
	// Threshold is the line count that triggers a truncation.
	Threshold = Capacity + Capacity/2
)

// retention pairs the two bounds so tests can shrink them.
type retention struct {
	capacity  int
	threshold int
}

func defaultRetention() retention {
	return retention{capacity: Capacity, threshold: Threshold}
}

// rotator tracks how many lines the log file holds and truncates it once
// the count crosses the threshold. It is not safe for concurrent use; the
// Sink calls it with the file lock held.
type rotator struct {
	store  *FileStore
	limits retention
	count  int
}

func newRotator(store *FileStore, limits retention, seed int) *rotator {
	return &rotator{store: store, limits: limits, count: seed}
}

// observe accounts for one appended line and truncates when the count
// before the append had reached the threshold.
//
// The count is pinned to capacity after every truncation attempt, failed
// ones included, so a persistent read or write error does not trigger a
// full-file rewrite on every subsequent record. The next attempt happens
// once the count has regrown past the threshold.
func (r *rotator) observe() (rotated bool, err error) {
	observed := r.count
	r.count++
	if observed < r.limits.threshold {
		return false, nil
	}

	err = r.store.Rotate(observed, r.limits.capacity)
	r.count = r.limits.capacity
	return err == nil, err
}

// lines returns the tracked line count.
func (r *rotator) lines() int {
	return r.count
}
