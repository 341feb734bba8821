// Package a2a defines the JSON-RPC envelope types spoken on the wire, both for
// inbound message/send calls and for the push requests this agent sends back to
// callback URLs.
package a2a

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	Version = "2.0"

	// Inbound methods accepted on /a2a/ron.
	MethodSend    = "message/send"
	MethodExecute = "execute"

	// Outbound method used when pushing a due reminder to a callback URL.
	MethodPush = "message/push"
)

const (
	KindText = "text"
	KindData = "data"
	KindFile = "file"

	RoleUser  = "user"
	RoleAgent = "agent"

	StatusCompleted = "completed"
)

type MessagePart struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
}

type Message struct {
	Role      string        `json:"role"`
	Parts     []MessagePart `json:"parts"`
	MessageID string        `json:"messageId"`
}

// FirstText returns the text of the first text-typed part, trimmed.
func (m Message) FirstText() string {
	for _, p := range m.Parts {
		if p.Kind == KindText {
			return strings.TrimSpace(p.Text)
		}
	}
	return ""
}

type PushNotificationConfig struct {
	URL   string `json:"url"`
	Token string `json:"token,omitempty"`
}

type Configuration struct {
	Blocking               bool                    `json:"blocking,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"pushNotificationConfig,omitempty"`
}

type Params struct {
	Message       Message       `json:"message"`
	ContextID     string        `json:"contextId"`
	Configuration Configuration `json:"configuration,omitempty"`
}

type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  Params `json:"params"`
}

// Validate performs boundary schema checks before a request reaches the core.
func (r Request) Validate() error {
	if r.JSONRPC != Version {
		return fmt.Errorf("jsonrpc must be %q", Version)
	}
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if r.Method != MethodSend && r.Method != MethodExecute {
		return fmt.Errorf("unsupported method %q", r.Method)
	}
	if strings.TrimSpace(r.Params.ContextID) == "" {
		return fmt.Errorf("params.contextId is required")
	}
	if len(r.Params.Message.Parts) == 0 {
		return fmt.Errorf("params.message.parts must not be empty")
	}
	return nil
}

// CallbackURL returns the per-conversation push URL, if the caller supplied one.
func (r Request) CallbackURL() string {
	if r.Params.Configuration.PushNotificationConfig == nil {
		return ""
	}
	return strings.TrimSpace(r.Params.Configuration.PushNotificationConfig.URL)
}

type TaskResult struct {
	ContextID string  `json:"contextId"`
	Status    string  `json:"status"`
	Message   Message `json:"message"`
}

type Response struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Result  TaskResult `json:"result"`
}

// NewAgentText builds a single-part agent message with a fresh message id.
func NewAgentText(text string) Message {
	return Message{
		Role:      RoleAgent,
		Parts:     []MessagePart{{Kind: KindText, Text: text}},
		MessageID: uuid.NewString(),
	}
}

// NewResponse wraps an agent reply in the synchronous JSON-RPC result envelope.
func NewResponse(requestID, contextID string, reply Message) Response {
	return Response{
		JSONRPC: Version,
		ID:      requestID,
		Result: TaskResult{
			ContextID: contextID,
			Status:    StatusCompleted,
			Message:   reply,
		},
	}
}

type PushParams struct {
	ContextID string  `json:"contextId"`
	Message   Message `json:"message"`
}

type PushRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  PushParams `json:"params"`
}

// NewPushRequest builds an outbound message/push envelope with a fresh request id.
func NewPushRequest(contextID string, msg Message) PushRequest {
	return PushRequest{
		JSONRPC: Version,
		ID:      uuid.NewString(),
		Method:  MethodPush,
		Params: PushParams{
			ContextID: contextID,
			Message:   msg,
		},
	}
}
