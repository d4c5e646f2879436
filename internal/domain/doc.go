// Package domain defines the core business entities of the scheduler:
// users and the tasks they own, together with entity-level validation.
package domain
