// Package enginetest provides an in-memory engine.Engine for tests.
package enginetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tsanders-rh/dockctl/internal/engine"
)

// Fake is an in-memory Engine. Containers are keyed by full ID; lookups
// accept any unique ID prefix, as the daemon does.
type Fake struct {
	mu sync.Mutex

	Containers map[string]*engine.Container
	Usage      map[string]*engine.Usage
	Logs       map[string]string
	Images     []engine.Image
	Networks   []engine.Network
	Volumes    []engine.Volume
	DaemonInfo engine.Info

	// Errors forces an error for an operation name, e.g. "stop container"
	Errors map[string]error
	// Down makes every call fail with ErrUnavailable
	Down bool

	// Calls records operations in call order
	Calls []string
}

// New returns an empty fake
func New() *Fake {
	return &Fake{
		Containers: map[string]*engine.Container{},
		Usage:      map[string]*engine.Usage{},
		Logs:       map[string]string{},
		Errors:     map[string]error{},
	}
}

// AddContainer registers a container with optional usage
func (f *Fake) AddContainer(c engine.Container, u *engine.Usage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c.Name == "" && len(c.Names) > 0 {
		c.Name = strings.TrimPrefix(c.Names[0], "/")
	}
	f.Containers[c.ID] = &c
	if u != nil {
		u.ContainerID = c.ID
		if u.Name == "" {
			u.Name = c.Name
		}
		f.Usage[c.ID] = u
	}
}

// Called reports whether op was invoked for id
func (f *Fake) Called(op, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, call := range f.Calls {
		if call == op+" "+id {
			return true
		}
	}
	return false
}

func (f *Fake) begin(op, id string) error {
	f.Calls = append(f.Calls, strings.TrimSpace(op+" "+id))
	if f.Down {
		return &engine.OperationError{Op: op, Err: fmt.Errorf("%w: connection refused", engine.ErrUnavailable)}
	}
	if err, ok := f.Errors[op]; ok {
		return &engine.OperationError{Op: op, Err: err}
	}
	return nil
}

func (f *Fake) find(op, id string) (*engine.Container, error) {
	if c, ok := f.Containers[id]; ok {
		return c, nil
	}
	var match *engine.Container
	for full, c := range f.Containers {
		if strings.HasPrefix(full, id) {
			if match != nil {
				return nil, &engine.OperationError{Op: op, Err: fmt.Errorf("%w: multiple containers match %s", engine.ErrInvalid, id)}
			}
			match = c
		}
	}
	if match == nil {
		return nil, &engine.OperationError{Op: op, Err: fmt.Errorf("%w: No such container: %s", engine.ErrNotFound, id)}
	}
	return match, nil
}

func (f *Fake) ListContainers(ctx context.Context, all bool) ([]engine.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("list containers", ""); err != nil {
		return nil, err
	}

	list := []engine.Container{}
	for _, c := range f.Containers {
		if all || c.Running() {
			list = append(list, *c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (f *Fake) InspectContainer(ctx context.Context, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("inspect container", id); err != nil {
		return nil, err
	}
	c, err := f.find("inspect container", id)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{
		"Id":    c.ID,
		"Name":  "/" + c.Name,
		"State": map[string]interface{}{"Status": c.State, "Running": c.Running()},
	})
}

func (f *Fake) ContainerStats(ctx context.Context, id string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("get container stats", id); err != nil {
		return nil, err
	}
	c, err := f.find("get container stats", id)
	if err != nil {
		return nil, err
	}
	var usage uint64
	if u, ok := f.Usage[c.ID]; ok {
		usage = u.MemoryBytes
	}
	return json.Marshal(map[string]interface{}{
		"id":           c.ID,
		"memory_stats": map[string]uint64{"usage": usage},
	})
}

func (f *Fake) ContainerUsage(ctx context.Context, id string) (*engine.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("get container stats", id); err != nil {
		return nil, err
	}
	c, err := f.find("get container stats", id)
	if err != nil {
		return nil, err
	}
	u, ok := f.Usage[c.ID]
	if !ok {
		return &engine.Usage{ContainerID: c.ID, Name: c.Name, MemoryLimit: 1}, nil
	}
	cp := *u
	return &cp, nil
}

func (f *Fake) ContainerLogs(ctx context.Context, id string) (*engine.Logs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("get container logs", id); err != nil {
		return nil, err
	}
	c, err := f.find("get container logs", id)
	if err != nil {
		return nil, err
	}
	return &engine.Logs{ContainerID: c.ID, Name: c.Name, Logs: f.Logs[c.ID]}, nil
}

func (f *Fake) setState(op, id, state, status string) (*engine.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(op, id); err != nil {
		return nil, err
	}
	c, err := f.find(op, id)
	if err != nil {
		return nil, err
	}
	c.State = state
	return &engine.ActionResult{ContainerID: id, Status: status}, nil
}

func (f *Fake) StartContainer(ctx context.Context, id string) (*engine.ActionResult, error) {
	return f.setState("start container", id, "running", engine.StatusStarted)
}

func (f *Fake) StopContainer(ctx context.Context, id string) (*engine.ActionResult, error) {
	return f.setState("stop container", id, "exited", engine.StatusStopped)
}

func (f *Fake) RestartContainer(ctx context.Context, id string) (*engine.ActionResult, error) {
	return f.setState("restart container", id, "running", engine.StatusRestarted)
}

func (f *Fake) RemoveContainer(ctx context.Context, id string, force bool) (*engine.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("remove container", id); err != nil {
		return nil, err
	}
	c, err := f.find("remove container", id)
	if err != nil {
		return nil, err
	}
	if c.Running() && !force {
		return nil, &engine.OperationError{Op: "remove container", Err: fmt.Errorf("%w: container %s is running", engine.ErrConflict, id)}
	}
	delete(f.Containers, c.ID)
	delete(f.Usage, c.ID)
	return &engine.ActionResult{ContainerID: id, Status: engine.StatusRemoved}, nil
}

func (f *Fake) CreateContainer(ctx context.Context, req *engine.CreateRequest) (*engine.ActionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("create container", req.Name); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%064x", len(f.Containers)+1)
	f.Containers[id] = &engine.Container{ID: id, Name: req.Name, Names: []string{"/" + req.Name}, Image: req.Image, State: "running"}
	return &engine.ActionResult{ContainerID: id, Status: engine.StatusCreated, Name: req.Name}, nil
}

func (f *Fake) PruneContainers(ctx context.Context) (*engine.PruneReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("prune containers", ""); err != nil {
		return nil, err
	}
	report := &engine.PruneReport{Deleted: []string{}}
	for id, c := range f.Containers {
		if !c.Running() {
			report.Deleted = append(report.Deleted, id)
			delete(f.Containers, id)
		}
	}
	sort.Strings(report.Deleted)
	return report, nil
}

func (f *Fake) ListImages(ctx context.Context) ([]engine.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("list images", ""); err != nil {
		return nil, err
	}
	return append([]engine.Image{}, f.Images...), nil
}

func (f *Fake) PruneImages(ctx context.Context) (*engine.PruneReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("prune images", ""); err != nil {
		return nil, err
	}
	return &engine.PruneReport{Deleted: []string{}}, nil
}

func (f *Fake) ListNetworks(ctx context.Context) ([]engine.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("list networks", ""); err != nil {
		return nil, err
	}
	return append([]engine.Network{}, f.Networks...), nil
}

func (f *Fake) CreateNetwork(ctx context.Context, name, driver string) (*engine.NetworkCreated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("create network", name); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%064x", len(f.Networks)+1000)
	f.Networks = append(f.Networks, engine.Network{ID: id, Name: name, Driver: driver})
	return &engine.NetworkCreated{ID: id, Name: name, Driver: driver}, nil
}

func (f *Fake) RemoveNetwork(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("remove network", id); err != nil {
		return err
	}
	for i, n := range f.Networks {
		if strings.HasPrefix(n.ID, id) {
			f.Networks = append(f.Networks[:i], f.Networks[i+1:]...)
			return nil
		}
	}
	return &engine.OperationError{Op: "remove network", Err: fmt.Errorf("%w: network %s not found", engine.ErrNotFound, id)}
}

func (f *Fake) ListVolumes(ctx context.Context) ([]engine.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("list volumes", ""); err != nil {
		return nil, err
	}
	return append([]engine.Volume{}, f.Volumes...), nil
}

func (f *Fake) CreateVolume(ctx context.Context, name string) (*engine.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("create volume", name); err != nil {
		return nil, err
	}
	v := engine.Volume{Name: name, Driver: "local", Scope: "local"}
	f.Volumes = append(f.Volumes, v)
	return &v, nil
}

func (f *Fake) RemoveVolume(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("remove volume", name); err != nil {
		return err
	}
	for i, v := range f.Volumes {
		if v.Name == name {
			f.Volumes = append(f.Volumes[:i], f.Volumes[i+1:]...)
			return nil
		}
	}
	return &engine.OperationError{Op: "remove volume", Err: fmt.Errorf("%w: get %s: no such volume", engine.ErrNotFound, name)}
}

func (f *Fake) PruneVolumes(ctx context.Context) (*engine.PruneReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("prune volumes", ""); err != nil {
		return nil, err
	}
	report := &engine.PruneReport{Deleted: []string{}}
	for _, v := range f.Volumes {
		report.Deleted = append(report.Deleted, v.Name)
	}
	f.Volumes = nil
	return report, nil
}

func (f *Fake) Info(ctx context.Context) (*engine.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("get Docker info", ""); err != nil {
		return nil, err
	}
	info := f.DaemonInfo
	info.Containers = len(f.Containers)
	return &info, nil
}

func (f *Fake) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.begin("ping Docker daemon", "")
}

var _ engine.Engine = (*Fake)(nil)
