// Client interfaces
package llm

import (
	"context"
	"time"
)

// DefaultHealthCheckInterval is how long a cached health-check result stays
// valid before an adapter probes its back end again.
const DefaultHealthCheckInterval = 5 * time.Minute

// ClientRemoteInfo describes the remote back end a client talks to.
type ClientRemoteInfo struct {
	Name   string
	Status *ClientRemoteInfoStatus
}

// ClientRemoteInfoStatus is the cached outcome of the last health probe.
type ClientRemoteInfoStatus struct {
	Healthy     *bool
	LastChecked *time.Time
}

// Client is the uniform surface every provider adapter implements.
type Client interface {
	// ChatCompletion performs a chat completion request
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// GetRemote reports back-end identity and health
	GetRemote() ClientRemoteInfo

	// GetModelInfo returns capabilities of the configured model
	GetModelInfo() ModelInfo

	// Close cleans up any resources used by the client
	Close() error
}
