package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxContentChars caps how much material text is embedded in a prompt.
const MaxContentChars = 15000

var errNoJSON = errors.New("no JSON structure found")

// ParseJSON recovers a JSON value from model output. It first takes the
// span from the earliest '{' or '[' to the last '}' or ']'. If that does not
// parse, Markdown code fences are stripped and the extraction runs once more.
func ParseJSON(text string) (json.RawMessage, error) {
	raw, err := extractSpan(text)
	if err == nil {
		return raw, nil
	}
	if raw, retryErr := extractSpan(stripFences(text)); retryErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
}

func extractSpan(text string) (json.RawMessage, error) {
	start := firstOpening(text)
	if start == -1 {
		return nil, errNoJSON
	}
	end := max(strings.LastIndexByte(text, '}'), strings.LastIndexByte(text, ']'))
	if end < start {
		return nil, errNoJSON
	}
	candidate := strings.TrimSpace(text[start : end+1])
	if !json.Valid([]byte(candidate)) {
		return nil, errors.New("extracted span is not valid JSON")
	}
	return json.RawMessage(candidate), nil
}

// firstOpening returns the index of whichever of '{' or '[' comes first.
func firstOpening(text string) int {
	brace := strings.IndexByte(text, '{')
	bracket := strings.IndexByte(text, '[')
	switch {
	case brace == -1:
		return bracket
	case bracket == -1:
		return brace
	default:
		return min(brace, bracket)
	}
}

// stripFences returns the body of the first fenced block when there is one,
// otherwise text with every ``` marker removed.
func stripFences(text string) string {
	open := strings.Index(text, "```")
	if open == -1 {
		return text
	}
	body := text[open+3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 && isFenceLang(body[:nl]) {
		body = body[nl+1:]
	}
	if closing := strings.Index(body, "```"); closing != -1 {
		return body[:closing]
	}
	return strings.ReplaceAll(text, "```", "")
}

func isFenceLang(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// Truncate limits content to MaxContentChars runes.
func Truncate(content string) string {
	if len(content) <= MaxContentChars {
		return content
	}
	runes := []rune(content)
	if len(runes) <= MaxContentChars {
		return content
	}
	return string(runes[:MaxContentChars])
}
