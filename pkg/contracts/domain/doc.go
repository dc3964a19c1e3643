// Package domain holds the data contracts shared by the payout pipeline:
// the normalized employee record and the ordered record set produced by the
// field mapper and consumed by the report renderer.
package domain
