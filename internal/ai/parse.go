package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

const fallbackMessage = "I couldn't process that request. Please try again."

// ParseReply decodes a model response. It tries the raw text as JSON first,
// then a JSON object extracted from surrounding prose or markdown fences,
// and finally degrades to treating the whole text as a plain chat message
// with no operations.
func ParseReply(raw string) Reply {
	if reply, ok := tryDecode(raw); ok {
		return reply
	}
	if match := jsonObject.FindString(raw); match != "" {
		if reply, ok := tryDecode(match); ok {
			return reply
		}
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		text = fallbackMessage
	}
	return Reply{Message: text}
}

func tryDecode(raw string) (Reply, bool) {
	var reply Reply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return Reply{}, false
	}
	if reply.Message == "" {
		return Reply{}, false
	}
	return reply, true
}
