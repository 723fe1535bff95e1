// Package history provides a circular buffer for per-channel conversation
// context. It uses Go's container/ring package to keep a fixed-size window
// of recent messages, so memory stays bounded no matter how long a channel
// keeps talking.
package history

import (
	"container/ring"

	"github.com/sashabaranov/go-openai"
	"github.com/xyzj/toolbox/json"
)

// New creates a History holding at most size messages. When the buffer is
// full, new messages overwrite the oldest ones.
func New(size int) *History {
	return &History{
		data: ring.New(size),
	}
}

// History is a circular buffer of chat completion messages.
type History struct {
	data *ring.Ring
}

// Store adds a single message, overwriting the oldest when full.
func (u *History) Store(msg openai.ChatCompletionMessage) {
	u.data.Value = msg
	u.data = u.data.Next()
}

// StoreMany adds multiple messages in sequence with the same overflow
// behavior as Store.
func (u *History) StoreMany(msgs ...openai.ChatCompletionMessage) {
	for _, msg := range msgs {
		u.Store(msg)
	}
}

// Clear removes all messages. The buffer stays usable.
func (u *History) Clear() {
	for i := 0; i < u.data.Len(); i++ {
		u.data.Value = nil
		u.data = u.data.Next()
	}
}

// Len returns the capacity of the buffer, not the number of stored
// messages.
func (u *History) Len() int {
	return u.data.Len()
}

// Slice returns the stored messages in insertion order.
func (u *History) Slice() []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, u.data.Len())
	u.data.Do(func(a any) {
		if a == nil {
			return
		}
		out = append(out, a.(openai.ChatCompletionMessage))
	})
	return out
}

// ToJSON serializes the stored messages, returning an empty string on
// marshal failure.
func (u *History) ToJSON() string {
	b, err := json.Marshal(u.Slice())
	if err != nil {
		return ""
	}
	return json.String(b)
}

// FromJSON appends messages parsed from a JSON array produced by ToJSON.
func (u *History) FromJSON(s string) error {
	msgs := make([]openai.ChatCompletionMessage, 0)
	if err := json.Unmarshal(json.Bytes(s), &msgs); err != nil {
		return err
	}
	u.StoreMany(msgs...)
	return nil
}
