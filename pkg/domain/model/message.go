package model

import (
	"slices"
	"time"

	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// InboundMessage is a source-independent view of a chat message, e-mail or
// tracker issue. It is immutable once created.
type InboundMessage struct {
	source      types.Source
	senderID    types.UserID
	channelID   string
	text        string
	timestamp   time.Time
	mentions    []types.UserID
	externalRef string
}

// InboundMessageParams holds the values of a new InboundMessage
type InboundMessageParams struct {
	Source types.Source
	// SenderID is the author of the message
	SenderID types.UserID
	// ChannelID is a chat channel ID or a mailbox ID
	ChannelID string
	Text      string
	Timestamp time.Time
	// Mentions are user IDs the source adapter already resolved
	Mentions []types.UserID
	// ExternalRef is an optional external identifier such as a tracker issue key
	ExternalRef string
}

// NewInboundMessage creates an InboundMessage
func NewInboundMessage(p InboundMessageParams) *InboundMessage {
	return &InboundMessage{
		source:      p.Source,
		senderID:    p.SenderID,
		channelID:   p.ChannelID,
		text:        p.Text,
		timestamp:   p.Timestamp,
		mentions:    slices.Clone(p.Mentions),
		externalRef: p.ExternalRef,
	}
}

func (m *InboundMessage) Source() types.Source {
	return m.source
}

func (m *InboundMessage) SenderID() types.UserID {
	return m.senderID
}

func (m *InboundMessage) ChannelID() string {
	return m.channelID
}

func (m *InboundMessage) Text() string {
	return m.text
}

func (m *InboundMessage) Timestamp() time.Time {
	return m.timestamp
}

// Mentions returns a copy of the adapter-resolved mentions
func (m *InboundMessage) Mentions() []types.UserID {
	return slices.Clone(m.mentions)
}

func (m *InboundMessage) ExternalRef() string {
	return m.externalRef
}

// ContentHash returns the dedup key of the message, see ContentHash
func (m *InboundMessage) ContentHash() string {
	return ContentHash(m.source, m.channelID, m.senderID, m.timestamp)
}

// Context returns the detector context for this message
func (m *InboundMessage) Context() MessageContext {
	return MessageContext{
		Source:    m.source,
		SenderID:  m.senderID,
		ChannelID: m.channelID,
		Mentions:  len(m.mentions),
	}
}

// MessageContext carries message metadata the detector may consult
type MessageContext struct {
	Source    types.Source
	SenderID  types.UserID
	ChannelID string
	Mentions  int
}
