// Package engine wraps the Docker Engine API behind the narrow interface the
// HTTP handlers, the bulk dispatcher and the usage sampler consume.
package engine

import (
	"context"
	"encoding/json"
)

// Engine is the set of Docker operations the service exposes
type Engine interface {
	// Containers
	ListContainers(ctx context.Context, all bool) ([]Container, error)
	InspectContainer(ctx context.Context, id string) (json.RawMessage, error)
	ContainerStats(ctx context.Context, id string) (json.RawMessage, error)
	ContainerUsage(ctx context.Context, id string) (*Usage, error)
	ContainerLogs(ctx context.Context, id string) (*Logs, error)
	StartContainer(ctx context.Context, id string) (*ActionResult, error)
	StopContainer(ctx context.Context, id string) (*ActionResult, error)
	RestartContainer(ctx context.Context, id string) (*ActionResult, error)
	RemoveContainer(ctx context.Context, id string, force bool) (*ActionResult, error)
	CreateContainer(ctx context.Context, req *CreateRequest) (*ActionResult, error)
	PruneContainers(ctx context.Context) (*PruneReport, error)

	// Images
	ListImages(ctx context.Context) ([]Image, error)
	PruneImages(ctx context.Context) (*PruneReport, error)

	// Networks
	ListNetworks(ctx context.Context) ([]Network, error)
	CreateNetwork(ctx context.Context, name, driver string) (*NetworkCreated, error)
	RemoveNetwork(ctx context.Context, id string) error

	// Volumes
	ListVolumes(ctx context.Context) ([]Volume, error)
	CreateVolume(ctx context.Context, name string) (*Volume, error)
	RemoveVolume(ctx context.Context, name string) error
	PruneVolumes(ctx context.Context) (*PruneReport, error)

	// Daemon
	Info(ctx context.Context) (*Info, error)
	Ping(ctx context.Context) error
}
