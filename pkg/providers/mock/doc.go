// Package mock provides scripted chat and embedding models for tests.
//
// The chat model answers from a queue of responses and errors and records every request,
// so code built on llm.ChatModel can be tested without network access. Tool calls in
// scripted responses go through the same tool-calling loop as the real adapters.
//
// Example:
//
//	model := mock.NewChatModel("test-model").
//	    WithToolCall("get_weather", map[string]any{"city": "Paris"}).
//	    WithSimpleResponse("It is sunny in Paris.")
//
//	resp, err := model.Call(ctx, llm.NewPrompt("Weather in Paris?", &llm.ToolCallingChatOptions{
//	    ToolCallingOptions: llm.ToolCallingOptions{ToolCallbacks: []llm.ToolCallback{weatherTool}},
//	}))
//
// When the queue is empty the model generates a short canned reply from the last message.
package mock
