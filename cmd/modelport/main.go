// Modelport is a command line client for the modelport model adapters.
//
// Usage:
//
//	# Chat with the default OpenAI model
//	modelport chat "What is the capital of France?"
//
//	# Stream the answer
//	modelport chat --stream "Write a haiku about Go"
//
//	# Dry run without network access
//	modelport chat --provider mock "hello"
//
//	# Embed text with PostgresML
//	modelport embed --provider postgresml --config modelport.yaml "some text"
//
//	# Generate an image, transcribe and synthesize audio
//	modelport image --size 1024x1024 "a lighthouse at dawn"
//	modelport transcribe meeting.mp3
//	modelport speak --voice nova --output hello.mp3 "Hello there"
//
// Configuration is read from the file given with --config, then overridden by
// OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL, POSTGRESML_DSN and friends.
package main

func main() {
	Execute()
}
