package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"go.uber.org/zap"
)

// Config holds Docker client configuration
type Config struct {
	// Host overrides DOCKER_HOST when set
	Host string `yaml:"host" env:"HOST"`
	// APIVersion pins the API version; empty negotiates with the daemon
	APIVersion string `yaml:"api_version" env:"API_VERSION"`
	// StopTimeout is the grace period before a stop escalates to SIGKILL; zero uses the daemon default
	StopTimeout time.Duration `yaml:"stop_timeout" env:"STOP_TIMEOUT" validate:"gte=0"`
	// LogTail is the number of log lines fetched per container
	LogTail int `yaml:"log_tail" env:"LOG_TAIL" validate:"gte=1"`
}

// DefaultConfig returns default Docker client configuration
func DefaultConfig() *Config {
	return &Config{
		LogTail: 100,
	}
}

// FailureHook is called with the operation name whenever a daemon call fails
type FailureHook func(op string)

// Client implements Engine against a Docker daemon
type Client struct {
	docker    *client.Client
	config    *Config
	logger    *zap.Logger
	onFailure FailureHook
	now       func() time.Time
}

// NewClient creates a Docker client. The connection is lazy; use Ping to verify it.
func NewClient(config *Config, logger *zap.Logger, onFailure FailureHook) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []client.Opt{client.FromEnv}
	if config.Host != "" {
		opts = append(opts, client.WithHost(config.Host))
	}
	if config.APIVersion != "" {
		opts = append(opts, client.WithVersion(config.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	docker, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Client{
		docker:    docker,
		config:    config,
		logger:    logger,
		onFailure: onFailure,
		now:       time.Now,
	}, nil
}

// Close releases the underlying transport
func (c *Client) Close() error {
	return c.docker.Close()
}

func (c *Client) fail(op string, err error) error {
	if c.onFailure != nil {
		c.onFailure(op)
	}
	c.logger.Debug("docker operation failed", zap.String("op", op), zap.Error(err))
	return wrap(op, err)
}

// ListContainers lists containers; all includes stopped ones
func (c *Client) ListContainers(ctx context.Context, all bool) ([]Container, error) {
	list, err := c.docker.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, c.fail("list containers", err)
	}

	containers := make([]Container, 0, len(list))
	for _, item := range list {
		ports := make([]Port, 0, len(item.Ports))
		for _, p := range item.Ports {
			ports = append(ports, Port{
				IP:          p.IP,
				PrivatePort: p.PrivatePort,
				PublicPort:  p.PublicPort,
				Type:        p.Type,
			})
		}

		containers = append(containers, Container{
			ID:      item.ID,
			Names:   item.Names,
			Name:    primaryName(item.Names),
			Image:   item.Image,
			ImageID: item.ImageID,
			Command: item.Command,
			Created: item.Created,
			State:   item.State,
			Status:  item.Status,
			Ports:   ports,
			Labels:  item.Labels,
		})
	}

	return containers, nil
}

// InspectContainer returns the daemon's inspect document unchanged
func (c *Client) InspectContainer(ctx context.Context, id string) (json.RawMessage, error) {
	_, raw, err := c.docker.ContainerInspectWithRaw(ctx, id, false)
	if err != nil {
		return nil, c.fail("inspect container", err)
	}
	return json.RawMessage(raw), nil
}

// ContainerStats returns a single non-streaming stats document
func (c *Client) ContainerStats(ctx context.Context, id string) (json.RawMessage, error) {
	stats, err := c.docker.ContainerStats(ctx, id, false)
	if err != nil {
		return nil, c.fail("get container stats", err)
	}
	defer stats.Body.Close()

	raw, err := io.ReadAll(stats.Body)
	if err != nil {
		return nil, c.fail("get container stats", err)
	}
	return json.RawMessage(raw), nil
}

// ContainerUsage derives CPU, memory and uptime figures for a container
func (c *Client) ContainerUsage(ctx context.Context, id string) (*Usage, error) {
	info, err := c.docker.ContainerInspect(ctx, id)
	if err != nil {
		return nil, c.fail("inspect container", err)
	}

	raw, err := c.ContainerStats(ctx, id)
	if err != nil {
		return nil, err
	}

	var created time.Time
	var name string
	if info.ContainerJSONBase != nil {
		name = strings.TrimPrefix(info.Name, "/")
		created, _ = time.Parse(time.RFC3339Nano, info.Created)
	}

	usage, err := DeriveUsage(raw, created, c.now())
	if err != nil {
		return nil, c.fail("get container stats", err)
	}
	usage.ContainerID = id
	usage.Name = name

	return usage, nil
}

// ContainerLogs returns the last LogTail lines of stdout and stderr
func (c *Client) ContainerLogs(ctx context.Context, id string) (*Logs, error) {
	info, err := c.docker.ContainerInspect(ctx, id)
	if err != nil {
		return nil, c.fail("get container logs", err)
	}

	reader, err := c.docker.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       fmt.Sprintf("%d", c.config.LogTail),
	})
	if err != nil {
		return nil, c.fail("get container logs", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	tty := info.Config != nil && info.Config.Tty
	if tty {
		_, err = io.Copy(&buf, reader)
	} else {
		_, err = stdcopy.StdCopy(&buf, &buf, reader)
	}
	if err != nil {
		return nil, c.fail("get container logs", err)
	}

	logs := &Logs{ContainerID: id, Logs: buf.String()}
	if info.ContainerJSONBase != nil {
		logs.Name = strings.TrimPrefix(info.Name, "/")
	}
	return logs, nil
}

// StartContainer starts a stopped container
func (c *Client) StartContainer(ctx context.Context, id string) (*ActionResult, error) {
	if err := c.docker.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return nil, c.fail("start container", err)
	}
	return &ActionResult{ContainerID: id, Status: StatusStarted}, nil
}

// StopContainer stops a running container
func (c *Client) StopContainer(ctx context.Context, id string) (*ActionResult, error) {
	if err := c.docker.ContainerStop(ctx, id, c.stopOptions()); err != nil {
		return nil, c.fail("stop container", err)
	}
	return &ActionResult{ContainerID: id, Status: StatusStopped}, nil
}

// RestartContainer restarts a container
func (c *Client) RestartContainer(ctx context.Context, id string) (*ActionResult, error) {
	if err := c.docker.ContainerRestart(ctx, id, c.stopOptions()); err != nil {
		return nil, c.fail("restart container", err)
	}
	return &ActionResult{ContainerID: id, Status: StatusRestarted}, nil
}

func (c *Client) stopOptions() container.StopOptions {
	if c.config.StopTimeout <= 0 {
		return container.StopOptions{}
	}
	seconds := int(c.config.StopTimeout.Seconds())
	return container.StopOptions{Timeout: &seconds}
}

// RemoveContainer removes a container; force kills it first if running
func (c *Client) RemoveContainer(ctx context.Context, id string, force bool) (*ActionResult, error) {
	if err := c.docker.ContainerRemove(ctx, id, container.RemoveOptions{Force: force}); err != nil {
		return nil, c.fail("remove container", err)
	}
	return &ActionResult{ContainerID: id, Status: StatusRemoved}, nil
}

// CreateContainer creates a container from req and starts it
func (c *Client) CreateContainer(ctx context.Context, req *CreateRequest) (*ActionResult, error) {
	exposed, bindings, err := portMap(req.PortBindings)
	if err != nil {
		return nil, &OperationError{Op: "create container", kind: ErrInvalid, Err: err}
	}

	created, err := c.docker.ContainerCreate(ctx,
		&container.Config{
			Image:        req.Image,
			ExposedPorts: exposed,
		},
		&container.HostConfig{
			PortBindings: bindings,
		},
		nil, nil, req.Name,
	)
	if err != nil {
		return nil, c.fail("create container", err)
	}

	if err := c.docker.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return nil, c.fail("create container", err)
	}

	c.logger.Info("container created",
		zap.String("container_id", created.ID),
		zap.String("name", req.Name),
		zap.String("image", req.Image))

	return &ActionResult{ContainerID: created.ID, Status: StatusCreated, Name: req.Name}, nil
}

// portMap converts "80/tcp" style keys into the SDK's port set and map
func portMap(bindings map[string][]PortBinding) (nat.PortSet, nat.PortMap, error) {
	exposed := nat.PortSet{}
	portBindings := nat.PortMap{}

	for spec, hosts := range bindings {
		proto, port := nat.SplitProtoPort(spec)
		p, err := nat.NewPort(proto, port)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid port %q: %w", spec, err)
		}

		exposed[p] = struct{}{}
		for _, h := range hosts {
			portBindings[p] = append(portBindings[p], nat.PortBinding{
				HostIP:   h.HostIP,
				HostPort: h.HostPort,
			})
		}
	}

	return exposed, portBindings, nil
}

// PruneContainers removes all stopped containers
func (c *Client) PruneContainers(ctx context.Context) (*PruneReport, error) {
	report, err := c.docker.ContainersPrune(ctx, filters.NewArgs())
	if err != nil {
		return nil, c.fail("prune containers", err)
	}
	return &PruneReport{Deleted: nonNil(report.ContainersDeleted), SpaceReclaimed: report.SpaceReclaimed}, nil
}

// ListImages lists local images
func (c *Client) ListImages(ctx context.Context) ([]Image, error) {
	list, err := c.docker.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, c.fail("list images", err)
	}

	images := make([]Image, 0, len(list))
	for _, item := range list {
		images = append(images, Image{
			ID:         item.ID,
			RepoTags:   item.RepoTags,
			Created:    item.Created,
			Size:       item.Size,
			Containers: item.Containers,
		})
	}
	return images, nil
}

// PruneImages removes dangling images
func (c *Client) PruneImages(ctx context.Context) (*PruneReport, error) {
	report, err := c.docker.ImagesPrune(ctx, filters.NewArgs())
	if err != nil {
		return nil, c.fail("prune images", err)
	}

	deleted := make([]string, 0, len(report.ImagesDeleted))
	for _, item := range report.ImagesDeleted {
		if item.Deleted != "" {
			deleted = append(deleted, item.Deleted)
		} else if item.Untagged != "" {
			deleted = append(deleted, item.Untagged)
		}
	}
	return &PruneReport{Deleted: deleted, SpaceReclaimed: report.SpaceReclaimed}, nil
}

// ListNetworks lists networks
func (c *Client) ListNetworks(ctx context.Context) ([]Network, error) {
	list, err := c.docker.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, c.fail("list networks", err)
	}

	networks := make([]Network, 0, len(list))
	for _, item := range list {
		networks = append(networks, Network{
			ID:         item.ID,
			Name:       item.Name,
			Driver:     item.Driver,
			Scope:      item.Scope,
			Internal:   item.Internal,
			Attachable: item.Attachable,
			Created:    item.Created,
			Labels:     item.Labels,
		})
	}
	return networks, nil
}

// CreateNetwork creates a network with the given driver
func (c *Client) CreateNetwork(ctx context.Context, name, driver string) (*NetworkCreated, error) {
	resp, err := c.docker.NetworkCreate(ctx, name, network.CreateOptions{Driver: driver})
	if err != nil {
		return nil, c.fail("create network", err)
	}
	return &NetworkCreated{ID: resp.ID, Name: name, Driver: driver, Warning: resp.Warning}, nil
}

// RemoveNetwork removes a network
func (c *Client) RemoveNetwork(ctx context.Context, id string) error {
	if err := c.docker.NetworkRemove(ctx, id); err != nil {
		return c.fail("remove network", err)
	}
	return nil
}

// ListVolumes lists volumes
func (c *Client) ListVolumes(ctx context.Context) ([]Volume, error) {
	resp, err := c.docker.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, c.fail("list volumes", err)
	}

	volumes := make([]Volume, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v == nil {
			continue
		}
		volumes = append(volumes, Volume{
			Name:       v.Name,
			Driver:     v.Driver,
			Mountpoint: v.Mountpoint,
			Scope:      v.Scope,
			CreatedAt:  v.CreatedAt,
			Labels:     v.Labels,
		})
	}
	return volumes, nil
}

// CreateVolume creates a named volume with the local driver
func (c *Client) CreateVolume(ctx context.Context, name string) (*Volume, error) {
	v, err := c.docker.VolumeCreate(ctx, volume.CreateOptions{Name: name})
	if err != nil {
		return nil, c.fail("create volume", err)
	}
	return &Volume{
		Name:       v.Name,
		Driver:     v.Driver,
		Mountpoint: v.Mountpoint,
		Scope:      v.Scope,
		CreatedAt:  v.CreatedAt,
		Labels:     v.Labels,
	}, nil
}

// RemoveVolume removes a volume
func (c *Client) RemoveVolume(ctx context.Context, name string) error {
	if err := c.docker.VolumeRemove(ctx, name, false); err != nil {
		return c.fail("remove volume", err)
	}
	return nil
}

// PruneVolumes removes unused volumes
func (c *Client) PruneVolumes(ctx context.Context) (*PruneReport, error) {
	report, err := c.docker.VolumesPrune(ctx, filters.NewArgs())
	if err != nil {
		return nil, c.fail("prune volumes", err)
	}
	return &PruneReport{Deleted: nonNil(report.VolumesDeleted), SpaceReclaimed: report.SpaceReclaimed}, nil
}

// Info returns daemon information
func (c *Client) Info(ctx context.Context) (*Info, error) {
	info, err := c.docker.Info(ctx)
	if err != nil {
		return nil, c.fail("get Docker info", err)
	}

	return &Info{
		ID:                info.ID,
		Name:              info.Name,
		ServerVersion:     info.ServerVersion,
		OperatingSystem:   info.OperatingSystem,
		OSType:            info.OSType,
		Architecture:      info.Architecture,
		KernelVersion:     info.KernelVersion,
		Driver:            info.Driver,
		NCPU:              info.NCPU,
		MemTotal:          info.MemTotal,
		Containers:        info.Containers,
		ContainersRunning: info.ContainersRunning,
		ContainersPaused:  info.ContainersPaused,
		ContainersStopped: info.ContainersStopped,
		Images:            info.Images,
	}, nil
}

// Ping checks that the daemon answers
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.docker.Ping(ctx); err != nil {
		return c.fail("ping Docker daemon", err)
	}
	return nil
}

func primaryName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ Engine = (*Client)(nil)
