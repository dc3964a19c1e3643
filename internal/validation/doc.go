// Package validation checks report inputs before processing starts:
// command-line options through go-playground/validator struct tags, and
// input paths through FileValidator.
package validation
