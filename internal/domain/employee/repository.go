package employee

import "context"

// EmployeeRepository is the read-only employee directory.
type EmployeeRepository interface {
	// Exists reports whether a non-deleted employee with the id exists
	Exists(ctx context.Context, id string) (bool, error)

	// ListActiveIDs returns every active employee, ordered by id
	ListActiveIDs(ctx context.Context) ([]string, error)
}
