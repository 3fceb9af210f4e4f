package engine

import (
	"fmt"
	"time"

	"github.com/tsanders-rh/dockctl/internal/cost"
)

// Container is a container summary as returned by a list call
type Container struct {
	ID      string            `json:"id"`
	Names   []string          `json:"names"`
	Name    string            `json:"name"`
	Image   string            `json:"image"`
	ImageID string            `json:"image_id"`
	Command string            `json:"command"`
	Created int64             `json:"created"`
	State   string            `json:"state"`
	Status  string            `json:"status"`
	Ports   []Port            `json:"ports"`
	Labels  map[string]string `json:"labels,omitempty"`
}

// Port is a published or exposed container port
type Port struct {
	IP          string `json:"ip,omitempty"`
	PrivatePort uint16 `json:"private_port"`
	PublicPort  uint16 `json:"public_port,omitempty"`
	Type        string `json:"type"`
}

// CreatedAt returns the container creation time
func (c Container) CreatedAt() time.Time {
	return time.Unix(c.Created, 0)
}

// Running returns true if the container is in the running state
func (c Container) Running() bool {
	return c.State == "running"
}

// Image is an image summary
type Image struct {
	ID         string   `json:"id"`
	RepoTags   []string `json:"repo_tags"`
	Created    int64    `json:"created"`
	Size       int64    `json:"size"`
	Containers int64    `json:"containers"`
}

// Network is a network summary
type Network struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Driver     string            `json:"driver"`
	Scope      string            `json:"scope"`
	Internal   bool              `json:"internal"`
	Attachable bool              `json:"attachable"`
	Created    time.Time         `json:"created"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// NetworkCreated is the result of creating a network
type NetworkCreated struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Driver  string `json:"driver"`
	Warning string `json:"warning,omitempty"`
}

// Volume is a named volume
type Volume struct {
	Name       string            `json:"name"`
	Driver     string            `json:"driver"`
	Mountpoint string            `json:"mountpoint"`
	Scope      string            `json:"scope"`
	CreatedAt  string            `json:"created_at,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
}

// PruneReport lists what a prune call deleted
type PruneReport struct {
	Deleted        []string `json:"deleted"`
	SpaceReclaimed uint64   `json:"space_reclaimed"`
}

// Info is the subset of daemon information surfaced by the API
type Info struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ServerVersion     string `json:"server_version"`
	OperatingSystem   string `json:"operating_system"`
	OSType            string `json:"os_type"`
	Architecture      string `json:"architecture"`
	KernelVersion     string `json:"kernel_version"`
	Driver            string `json:"driver"`
	NCPU              int    `json:"ncpu"`
	MemTotal          int64  `json:"mem_total"`
	Containers        int    `json:"containers"`
	ContainersRunning int    `json:"containers_running"`
	ContainersPaused  int    `json:"containers_paused"`
	ContainersStopped int    `json:"containers_stopped"`
	Images            int    `json:"images"`
}

// ActionResult reports the outcome of a single container action
type ActionResult struct {
	ContainerID string `json:"container_id"`
	Status      string `json:"status"`
	Name        string `json:"name,omitempty"`
}

// Action result statuses
const (
	StatusStarted   = "started"
	StatusStopped   = "stopped"
	StatusRestarted = "restarted"
	StatusRemoved   = "removed"
	StatusCreated   = "created and started"
)

// PortBinding maps a container port to a host address
type PortBinding struct {
	HostIP   string `json:"host_ip,omitempty"`
	HostPort string `json:"host_port"`
}

// CreateRequest describes a container to create and start
type CreateRequest struct {
	Image        string                   `json:"image"`
	Name         string                   `json:"name"`
	PortBindings map[string][]PortBinding `json:"port_bindings"`
}

// Defaults for container and network creation
const (
	DefaultImage         = "nginx:latest"
	DefaultContainerPort = "80/tcp"
	DefaultHostPort      = "8080"

	DefaultNetworkDriver = "bridge"
)

// Logs is the demultiplexed tail of a container's output
type Logs struct {
	ContainerID string `json:"container_id"`
	Name        string `json:"name"`
	Logs        string `json:"logs"`
}

// Usage is a container's derived resource usage at one point in time
type Usage struct {
	ContainerID   string  `json:"container_id"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryBytes   uint64  `json:"memory_bytes"`
	MemoryLimit   uint64  `json:"memory_limit"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Sample converts the usage into a cost sample
func (u *Usage) Sample() cost.Sample {
	return cost.Sample{
		CPUPercent:    u.CPUPercent,
		MemoryBytes:   u.MemoryBytes,
		MemoryLimit:   u.MemoryLimit,
		UptimeSeconds: u.UptimeSeconds,
	}
}

// Named converts the usage into a named cost sample
func (u *Usage) Named() cost.NamedSample {
	return cost.NamedSample{Name: u.Name, Sample: u.Sample()}
}

// ApplyDefaults fills in the image, a timestamped name and the default port
// binding where the request leaves them empty
func (r *CreateRequest) ApplyDefaults(now time.Time) {
	if r.Image == "" {
		r.Image = DefaultImage
	}
	if r.Name == "" {
		r.Name = fmt.Sprintf("container-%d", now.UnixMilli())
	}
	if len(r.PortBindings) == 0 {
		r.PortBindings = map[string][]PortBinding{
			DefaultContainerPort: {{HostPort: DefaultHostPort}},
		}
	}
}
