package scheduler

// WithStorage is a specification-level no-op: it returns an all-zero
// assignment. Implementers may extend it later without changing the
// dispatch signature.
type WithStorage struct{}

func (WithStorage) Name() string { return "with_storage" }

func (WithStorage) Schedule(ctx Context) (Assignment, error) {
	return newAssignment(), nil
}

// Optimized is a specification-level no-op placeholder; Elvis is not a
// market/tariff optimizer, so this policy never assigns power.
type Optimized struct{}

func (Optimized) Name() string { return "optimized" }

func (Optimized) Schedule(ctx Context) (Assignment, error) {
	return newAssignment(), nil
}
