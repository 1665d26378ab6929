// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RecordStore: Document record persistence
//   - FragmentStore: Fragment persistence
//   - TextExtractor: PDF/DOCX text extraction and chunking
//   - FactExtractor: Structured facts from contract text
//   - BlobStore: Uploaded originals
//   - ConfigStore: Application configuration
//   - SchedulerStore: Background task state
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - VectorIndex: Similarity oracle. Without it, retrieval is lexical-only.
//   - EmbeddingService: Generates vector embeddings. Without it, VectorIndex is also disabled.
//   - LLMService: Language model completion. Without it, facts come from the heuristic extractor.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
