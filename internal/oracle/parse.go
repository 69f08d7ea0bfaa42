package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	looseRe = regexp.MustCompile(`(?s)\{\s*"subtags"\s*:\s*\[.*?\]\s*\}`)
)

type subtagPayload struct {
	Subtags []string `json:"subtags"`
}

// ExtractSubtags parses the model's response into a subtag list. It tries
// the raw body first, then a fenced code block, then the first object that
// carries a "subtags" array anywhere in the text. An unparseable response
// is an error so the caller can retry.
func ExtractSubtags(response string) ([]string, error) {
	if response == "" {
		return nil, fmt.Errorf("empty response")
	}

	if subtags, ok := tryDecode(response); ok {
		return subtags, nil
	}
	if m := fenceRe.FindStringSubmatch(response); m != nil {
		if subtags, ok := tryDecode(m[1]); ok {
			return subtags, nil
		}
	}
	if m := looseRe.FindString(response); m != "" {
		if subtags, ok := tryDecode(m); ok {
			return subtags, nil
		}
	}
	return nil, fmt.Errorf("no subtags JSON found in response")
}

func tryDecode(s string) ([]string, bool) {
	var payload subtagPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, false
	}
	if payload.Subtags == nil {
		payload.Subtags = []string{}
	}
	return payload.Subtags, true
}
