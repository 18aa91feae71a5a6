package dispatch

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ToolCall is one entry of the assistant's toolCallList. Only "function"
// kinds are dispatched; other kinds are skipped without producing a result.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments Args   `json:"arguments"`
}

// Args is the tool call's argument mapping. Some assistant platforms send
// arguments as an object, others as a JSON-encoded string; both decode here.
type Args map[string]any

func (a *Args) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err == nil {
		*a = m
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tool arguments: %s", data)
	}
	if s == "" {
		*a = Args{}
		return nil
	}
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return fmt.Errorf("tool arguments: %w", err)
	}
	*a = m
	return nil
}

// String reads a string-ish argument; numbers are rendered without an
// exponent so phone-like values survive.
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Result is the per-call outcome. Message is always set — the voice channel
// never gets a raw error without natural-language text alongside it.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`

	Slots        []string `json:"slots,omitempty"`
	BookingID    int64    `json:"bookingId,omitempty"`
	BookingUID   string   `json:"bookingUid,omitempty"`
	WhatsAppSent *bool    `json:"whatsappSent,omitempty"`
}

// TaggedResult pairs a Result with the tool call id it answers.
type TaggedResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     Result `json:"result"`
}
