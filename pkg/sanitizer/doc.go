// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent and handle invalid input by returning an
// empty string rather than an error, leaving the rejection to validation.
//
// Normalization includes:
//   - Phone numbers: E.164 format, with a default region for local numbers
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Digits: drop separators from numeric codes
package sanitizer
