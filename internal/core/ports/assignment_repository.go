package ports

import "context"

// AssignmentRepository reads the user↔client assignment relation. It is the
// sole lookup the resource guards perform; implementations must be read-only
// and idempotent.
type AssignmentRepository interface {
	// ActiveAssignmentExists reports whether an active assignment links the
	// user to the client.
	ActiveAssignmentExists(ctx context.Context, userID, clientID string) (bool, error)
}
