// Package store defines the persistence contracts the service layer depends
// on, together with shared store errors and transaction helpers. Concrete
// implementations live in internal/platform/postgres.
package store
