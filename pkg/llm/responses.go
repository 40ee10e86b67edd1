package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	codeFencePattern = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)```")
	ansiPattern      = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// ExtractJSONFromResponse extracts JSON from a model answer that may wrap it in
// markdown code fences or surrounding prose. It returns the text unchanged if no
// JSON value can be found.
//
// Example:
//
//	response := "Here is the data:\n```json\n{\"key\": \"value\"}\n```"
//	jsonStr := ExtractJSONFromResponse(response)
//	fmt.Println(jsonStr) // Output: {"key": "value"}
func ExtractJSONFromResponse(text string) string {
	text = strings.TrimSpace(ansiPattern.ReplaceAllString(text, ""))

	for _, m := range codeFencePattern.FindAllStringSubmatch(text, -1) {
		if candidate := strings.TrimSpace(m[1]); json.Valid([]byte(candidate)) && isJSONContainer(candidate) {
			return candidate
		}
	}

	if json.Valid([]byte(text)) && isJSONContainer(text) {
		return text
	}

	// scan for the first object or array that decodes cleanly
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return string(bytes.TrimSpace(raw))
		}
	}

	return text
}

func isJSONContainer(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// RemoveBlocks removes all blocks of the specified tag from the input string.
// For example, RemoveBlocks(text, "think") will remove all <think>...</think> blocks.
func RemoveBlocks(text, tag string) string {
	pattern := fmt.Sprintf(`(?s)<%s>.*?</%s>`, regexp.QuoteMeta(tag), regexp.QuoteMeta(tag))
	return regexp.MustCompile(pattern).ReplaceAllString(text, "")
}

// ExtractJSONToStruct extracts JSON from a model answer and unmarshals it into out,
// which must be a pointer.
func ExtractJSONToStruct(response string, out any) error {
	jsonStr := ExtractJSONFromResponse(response)
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("failed to decode structured output: %w", err)
	}
	return nil
}

// CallForObject sends prompt to model and decodes the answer into a T.
// Reasoning blocks (<think>...</think>) are dropped before the JSON is looked for.
//
// Example:
//
//	type City struct {
//	    Name    string `json:"name"`
//	    Country string `json:"country"`
//	}
//	city, err := CallForObject[City](ctx, model, NewPrompt("Name the capital of France as JSON"))
func CallForObject[T any](ctx context.Context, model ChatModel, prompt Prompt) (T, error) {
	var out T
	resp, err := model.Call(ctx, prompt)
	if err != nil {
		return out, err
	}
	if len(resp.Choices) == 0 {
		return out, fmt.Errorf("model returned no choices")
	}
	if err := ExtractJSONToStruct(RemoveBlocks(resp.Text(), "think"), &out); err != nil {
		return out, err
	}
	return out, nil
}
