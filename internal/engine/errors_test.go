package engine

import (
	"errors"
	"testing"

	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		message string
	}{
		{
			name:    "not found",
			err:     errdefs.NotFound(errors.New("No such container: abc")),
			want:    ErrNotFound,
			message: "failed to stop container: No such container: abc",
		},
		{
			name:    "conflict",
			err:     errdefs.Conflict(errors.New("container is running")),
			want:    ErrConflict,
			message: "failed to stop container: container is running",
		},
		{
			name:    "unavailable",
			err:     errdefs.Unavailable(errors.New("daemon down")),
			want:    ErrUnavailable,
			message: "failed to stop container: daemon down",
		},
		{
			name:    "invalid",
			err:     errdefs.InvalidParameter(errors.New("bad reference")),
			want:    ErrInvalid,
			message: "failed to stop container: bad reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wrap("stop container", tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestWrap_Unclassified(t *testing.T) {
	cause := errors.New("boom")
	err := wrap("list images", cause)

	assert.EqualError(t, err, "failed to list images: boom")
	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Nil(t, wrap("list images", nil))
}

func TestPortMap(t *testing.T) {
	exposed, bindings, err := portMap(map[string][]PortBinding{
		"80/tcp": {{HostPort: "8080"}},
		"53/udp": {{HostIP: "127.0.0.1", HostPort: "5353"}},
	})
	assert.NoError(t, err)
	assert.Len(t, exposed, 2)
	assert.Len(t, bindings, 2)

	for port, hosts := range bindings {
		switch port.Port() {
		case "80":
			assert.Equal(t, "tcp", port.Proto())
			assert.Equal(t, "8080", hosts[0].HostPort)
		case "53":
			assert.Equal(t, "udp", port.Proto())
			assert.Equal(t, "127.0.0.1", hosts[0].HostIP)
		default:
			t.Fatalf("unexpected port %s", port)
		}
	}

	_, _, err = portMap(map[string][]PortBinding{"http/tcp": {{HostPort: "1"}}})
	assert.Error(t, err)
}
