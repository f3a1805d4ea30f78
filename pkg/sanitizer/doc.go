// Package sanitizer normalizes free-text input before it is matched or
// stored.
//
// All functions are idempotent and never fail: unusable input collapses to
// the empty string.
//
// Normalization includes:
//   - Text: collapse whitespace runs to one space, trim both ends
//   - Search terms: normalized text, accents folded, lowercased
//   - Codes (library, item type, patron category): trimmed, control characters removed
package sanitizer
