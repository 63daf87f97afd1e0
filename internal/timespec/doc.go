// Package timespec parses the UTC instant notation operators use to request a
// segment, e.g. 2024-01-15Z14:30:45.250.
//
// Only UTC is accepted: the literal Z marker separates the date from the time
// body and is mandatory. The fractional second is optional.
package timespec
