package generic

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EntityID identifies the employee a ledger or request belongs to.
type EntityID string

// RequestID identifies a recorded leave request.
type RequestID string
