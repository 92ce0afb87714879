package docker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/sakif/codecoach/internal/executor/pool"
)

// containers creates and removes the idle sandbox containers the warm pool
// hands out. Every container runs `sleep infinity` until a snippet is
// exec'd into it and is force-removed after that one use.
type containers struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
}

func newContainerPool(cli *client.Client, cfg Config, logger *slog.Logger) *pool.Pool[string] {
	c := &containers{cli: cli, config: cfg, logger: logger}
	return pool.New("docker", cfg.PoolSize, c.create, c.remove, logger)
}

// create starts a container with no network, a read-only root filesystem and
// the configured memory and CPU limits.
func (c *containers) create(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:   c.config.MemoryLimit,
			NanoCPUs: int64(c.config.CPULimit * 1e9),
		},
		AutoRemove:     false,
		ReadonlyRootfs: true,
	}

	resp, err := c.cli.ContainerCreate(ctx, &container.Config{
		Image:        c.config.Image,
		Cmd:          []string{"sleep", "infinity"},
		Tty:          false,
		AttachStdout: false,
		AttachStderr: false,
		User:         "node",
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		c.remove(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}

	return resp.ID, nil
}

// remove force removes a container by ID.
func (c *containers) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		c.logger.Error("failed to remove container",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
}
