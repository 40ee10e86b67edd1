// Package factory creates chat and embedding models by provider name.
//
// Importing the package registers the built-in providers: "openai" (chat and embeddings),
// "postgresml" (embeddings) and "mock" (chat and embeddings, also as "mocked").
// Other packages can add their own with RegisterChatProvider and RegisterEmbeddingProvider.
//
// Example usage:
//
//	f := factory.New(factory.WithLogger(logger))
//	chat, err := f.CreateChatModel(ctx, llm.ClientConfig{
//	    Provider: "openai",
//	    Model:    "gpt-4o-mini",
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	})
package factory
