package activity

import (
	"strings"
	"time"
)

const (
	// VerbBackendGlobalSet is emitted when a domain's global backend changes.
	VerbBackendGlobalSet = "backend.global.set"
	// VerbBackendRegistered is emitted when a backend joins a domain.
	VerbBackendRegistered = "backend.registered"

	// ObjectTypeDomain is the object type of registry events.
	ObjectTypeDomain = "dispatch.domain"
)

// BackendEventInput describes a registry mutation.
type BackendEventInput struct {
	ActorID    string
	TenantID   string
	Channel    string
	Domain     string
	Backend    string
	Position   int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildBackendGlobalSetEvent describes a global backend replacement.
func BuildBackendGlobalSetEvent(input BackendEventInput) Event {
	event := buildBackendEvent(VerbBackendGlobalSet, input)
	return event
}

// BuildBackendRegisteredEvent describes a backend appended to a domain. The
// metadata carries the zero-based position in the registered list.
func BuildBackendRegisteredEvent(input BackendEventInput) Event {
	event := buildBackendEvent(VerbBackendRegistered, input)
	event.Metadata["position"] = input.Position
	return event
}

func buildBackendEvent(verb string, input BackendEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if backend := strings.TrimSpace(input.Backend); backend != "" {
		metadata["backend"] = backend
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeDomain,
		ObjectID:   strings.TrimSpace(input.Domain),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
