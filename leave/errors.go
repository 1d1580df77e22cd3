package leave

import (
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// OverlapError reports a request that covers a day another active request
// of the same employee already covers.
type OverlapError struct {
	EmployeeID generic.EntityID
	Date       generic.Date
	ExistingID generic.RequestID
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("day already requested: %s for %s (request: %s)",
		e.Date, e.EmployeeID, e.ExistingID)
}

func (e *OverlapError) Unwrap() error {
	return generic.ErrOverlappingRequest
}
