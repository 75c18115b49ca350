package types

import "github.com/m-mizutani/goerr/v2"

// Source is the kind of system an inbound message came from
type Source string

const (
	SourceChat    Source = "chat"
	SourceEmail   Source = "email"
	SourceTracker Source = "tracker"
)

// IsValid checks if the source is valid
func (s Source) IsValid() bool {
	switch s {
	case SourceChat, SourceEmail, SourceTracker:
		return true
	}
	return false
}

func (s Source) String() string {
	return string(s)
}

// ExternalSource names the concrete integrated system that owns a task's
// external identity, e.g. "github" or "notion".
type ExternalSource string

const (
	ExternalSourceSlack  ExternalSource = "slack"
	ExternalSourceEmail  ExternalSource = "email"
	ExternalSourceGitHub ExternalSource = "github"
	ExternalSourceNotion ExternalSource = "notion"
)

func (s ExternalSource) String() string {
	return string(s)
}

// Validate checks that the external source is a known integration
func (s ExternalSource) Validate() error {
	switch s {
	case ExternalSourceSlack, ExternalSourceEmail, ExternalSourceGitHub, ExternalSourceNotion:
		return nil
	}
	return goerr.New("unknown external source", goerr.V("source", s))
}
