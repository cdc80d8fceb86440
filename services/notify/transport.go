package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vplan-backend/lib/telemetry"

	"github.com/cespare/xxhash/v2"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/unicode/norm"
)

// Message is a single notification, Change carries the structured payload
// for transports that can make use of it.
type Message struct {
	Title    string
	Body     string
	Tags     []string
	Priority int
	Change   *Change
}

// Transport delivers a message to everyone listening on a topic.
//
// note: fault injection point
type Transport interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

// DispatchError is a transport failure for a single topic.
type DispatchError struct {
	Topic  string
	Status int
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("publish to %s: %s", e.Topic, e.Err.Error())
	}
	return fmt.Sprintf("publish to %s: unexpected status %d", e.Topic, e.Status)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NoopTransport drops every message, it is used when no transport is
// configured.
type NoopTransport struct{}

func (NoopTransport) Publish(context.Context, string, Message) error {
	return nil
}

type NtfyOptions struct {
	Url   string `json:"url"`
	Token string `json:"token"`
	// Priority is the ntfy priority (1-5) used for messages that don't set one.
	Priority int `json:"priority"`
	Timeout  time.Duration
}

// NewTransport returns an ntfy transport or NoopTransport when no url is
// configured.
func NewTransport(opts NtfyOptions, tel telemetry.API) Transport {
	if strings.TrimSpace(opts.Url) == "" {
		return NoopTransport{}
	}
	return NewNtfyTransport(opts, tel)
}

// NtfyTransport publishes messages through ntfy's json publishing api.
type NtfyTransport struct {
	http     *resty.Client
	priority int
}

func NewNtfyTransport(opts NtfyOptions, tel telemetry.API) *NtfyTransport {
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 10
	}
	if opts.Priority == 0 {
		opts.Priority = 3
	}

	client := resty.New()
	client.SetBaseURL(opts.Url)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "vplan-backend")
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}
	telemetry.InstrumentResty(client, "vplan.services.notify.ntfy", tel)

	return &NtfyTransport{
		http:     client,
		priority: opts.Priority,
	}
}

type ntfyPublish struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title,omitempty"`
	Message  string   `json:"message"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority,omitempty"`
}

func (n *NtfyTransport) Publish(ctx context.Context, topic string, msg Message) error {
	priority := msg.Priority
	if priority == 0 {
		priority = n.priority
	}

	res, err := n.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(ntfyPublish{
			Topic:    NtfyTopic(topic),
			Title:    msg.Title,
			Message:  msg.Body,
			Tags:     msg.Tags,
			Priority: priority,
		}).
		Post("/")
	if err != nil {
		return &DispatchError{Topic: topic, Err: err}
	}
	if res.StatusCode() >= 300 {
		return &DispatchError{Topic: topic, Status: res.StatusCode()}
	}
	return nil
}

const ntfyTopicMax = 64

// NtfyTopic maps a topic onto the characters ntfy accepts in topic names
// ([-_A-Za-z0-9], at most 64). Dots become underscores. Accented letters
// fall back to their base letter, anything else to an underscore. When a
// rune is rewritten this way or the topic is cut, a hash of the original
// topic is appended so distinct topics never share an ntfy topic.
func NtfyTopic(topic string) string {
	lossy := false
	var b strings.Builder
	for _, r := range topic {
		switch {
		case ntfyAllowed(r):
			b.WriteRune(r)
		case r == '.':
			b.WriteRune('_')
		default:
			lossy = true
			base := []rune(norm.NFD.String(string(r)))[0]
			if ntfyAllowed(base) {
				b.WriteRune(base)
			} else {
				b.WriteRune('_')
			}
		}
	}
	out := b.String()
	if !lossy && len(out) <= ntfyTopicMax {
		return out
	}
	suffix := fmt.Sprintf("_%08x", uint32(xxhash.Sum64String(topic)))
	if len(out) > ntfyTopicMax-len(suffix) {
		out = out[:ntfyTopicMax-len(suffix)]
	}
	return out + suffix
}

func ntfyAllowed(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}
