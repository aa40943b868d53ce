package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FallbackReply is what the UI shows when the webhook answered but its reply
// matched no known shape. Recoverable failures always map to this string;
// hard failures propagate as errors.
const FallbackReply = "unexpected response format"

// wrapperMarkers are literal prefixes that mean the candidate still carries
// un-stripped JSON structure and must not reach the user.
var wrapperMarkers = []string{`[{"output":`, `{"body":`}

// shapeMatcher pairs a name with an extractor. Matchers run in declaration
// order; the first hit wins. The list covers every reply shape the upstream
// flow has shipped as it drifted across revisions: plain text, {reply},
// {body:{message}}, then array-wrapped {output}. Nested wrappers outrank
// flat fields so a reply is unwrapped as deeply as possible.
type shapeMatcher struct {
	name    string
	extract func(v any) (string, bool)
}

var shapeMatchers = []shapeMatcher{
	{"body.message", extractBodyMessage},
	{"array.output", extractArrayOutput},
	{"reply", objectField("reply")},
	{"message", objectField("message")},
	{"text", objectField("text")},
	{"string", extractString},
}

func extractBodyMessage(v any) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	body, ok := obj["body"].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := body["message"].(string)
	return s, ok
}

func extractArrayOutput(v any) (string, bool) {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return "", false
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := first["output"].(string)
	return s, ok
}

func objectField(field string) func(v any) (string, bool) {
	return func(v any) (string, bool) {
		obj, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := obj[field].(string)
		return s, ok
	}
}

func extractString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// Normalize turns a raw webhook response into a display-ready reply.
//
// Non-2xx fails hard with the status. The body is then parsed as JSON; a
// parse error is not fatal — plain-text replies are valid, so the raw text
// becomes the candidate. Parsed values go through the shape matchers. The
// surviving candidate gets literal \n sequences converted to newlines, and a
// final guard rejects anything that still starts with a wrapper marker.
func Normalize(resp RawResponse) (string, error) {
	if !resp.OK {
		return "", &Failure{Kind: FailureHTTP, Status: resp.Status, Detail: resp.Body}
	}

	candidate := resp.Body
	var parsed any
	if err := json.Unmarshal([]byte(resp.Body), &parsed); err == nil {
		matched := false
		for _, m := range shapeMatchers {
			if s, ok := m.extract(parsed); ok {
				candidate = s
				matched = true
				break
			}
		}
		if !matched {
			return "", &Failure{Kind: FailureUnrecognizedShape, Detail: stringify(parsed)}
		}
	}

	cleaned := cleanCandidate(candidate)
	if hasWrapperMarker(cleaned) {
		return "", &Failure{Kind: FailureUnrecognizedShape, Detail: cleaned}
	}
	return cleaned, nil
}

// cleanCandidate converts literal backslash-n sequences into real newlines.
// The upstream flow double-escapes newlines; on text without the literal
// sequence this is a no-op, and applying it twice changes nothing.
func cleanCandidate(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func hasWrapperMarker(s string) bool {
	for _, marker := range wrapperMarkers {
		if strings.HasPrefix(s, marker) {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
