// Package cpbrules extracts medical-necessity decision rules from insurer
// clinical policy bulletin pages and converts them into a validated,
// recursively nested rule tree.
//
// This package contains domain types, pure domain logic and interfaces
// following Ben Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., goquery/,
// gemini/, openai/).
package cpbrules
