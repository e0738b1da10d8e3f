package mail

import (
	"errors"
	"fmt"
)

var ErrInvalidMessage = errors.New("invalid mail message")

type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) values() map[string]any {
	return map[string]any{
		"to":      m.To,
		"subject": m.Subject,
		"body":    m.Body,
	}
}

func decodeMessage(values map[string]any) (Message, error) {
	field := func(name string) string {
		if v, ok := values[name].(string); ok {
			return v
		}
		return ""
	}
	msg := Message{To: field("to"), Subject: field("subject"), Body: field("body")}
	if msg.To == "" {
		return Message{}, fmt.Errorf("%w: missing recipient", ErrInvalidMessage)
	}
	return msg, nil
}
