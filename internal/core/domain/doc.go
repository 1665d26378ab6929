// Package domain defines the core business entities for ndavault.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: An uploaded contract with its two status axes
//   - Fragment: A retrievable chunk of extracted text
//   - ProcessingStatus: The ingestion lifecycle state machine
//   - WorkflowStatus: The legal/business state of an NDA
//   - ExpirationClass: A contract's temporal currency bucket
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
