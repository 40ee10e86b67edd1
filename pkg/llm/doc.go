// Package llm defines the portable model shared by every provider adapter.
//
// The package holds the vendor-agnostic request and response types, the
// interfaces adapters implement, and the small amount of orchestration that
// is common to all of them:
//
// - ChatModel, EmbeddingModel, ImageModel, TranscriptionModel, SpeechModel
//   and ModerationModel interfaces
// - Messages with multi-modal content (text, images)
// - Portable options and the merge of runtime options over defaults
// - Tool callbacks and the ToolCallingManager driving the tool-calling loop
// - Stream events and the StreamAggregator coalescing them
// - RetryTemplate shared by all adapters
// - Standardized errors
//
// Provider implementations live under /pkg/providers/ so that this package
// never imports a vendor SDK.
package llm
