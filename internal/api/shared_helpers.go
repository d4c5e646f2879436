package api

import "github.com/masadev/pscheduler/internal/api/shared"

// Forwarding aliases so handlers in this package can use the shared
// request/response helpers unqualified.
var (
	DecodeJSON       = shared.DecodeJSON
	RespondWithJSON  = shared.RespondWithJSON
	RespondWithError = shared.RespondWithError
)
