// Package openai adapts the OpenAI REST API to the portable llm model.
//
// Every endpoint has its own model type sharing one connection setup:
//
//   - ChatModel: chat completions, sync and streaming, with the tool-calling loop
//   - EmbeddingModel: embeddings for texts and documents
//   - ImageModel: image generation, with partial-image streaming
//   - AudioTranscriptionModel and AudioSpeechModel: speech to text and back
//   - ModerationModel: content moderation
//   - AssistantClient: assistants CRUD
//
// Each model owns default options that runtime options are merged over, a retry
// template applied to every vendor call, and a zap logger. Vendor errors are
// converted to *llm.Error and rate-limit headers are attached to responses.
//
// OpenAI-compatible servers are reached by pointing BaseURL at them.
package openai
