// Package runtime controls the local Docker runtime for Stackyard: it
// restarts a stack's containers after a configuration change and reports
// stack status. Containers are addressed by their compose project label;
// Stackyard never creates or removes containers.
package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	dockerclient "github.com/docker/docker/client"

	"evalgo.org/stackyard/internal/config"
	"evalgo.org/stackyard/models"
)

// composeProjectLabel is the label the orchestration runtime puts on every
// container belonging to a compose project.
const composeProjectLabel = "com.docker.compose.project"

// Controller restarts and inspects compose stacks through the Docker API.
type Controller struct {
	client         dockerclient.APIClient
	restartTimeout time.Duration
	stopTimeout    time.Duration
}

// ContainerState is one container's runtime state in a stack status report.
type ContainerState struct {
	// ID is the container ID
	ID string `json:"id"`

	// Name is the container name without the leading slash
	Name string `json:"name"`

	// Image is the container image reference
	Image string `json:"image"`

	// State is the coarse container state (running, exited, ...)
	State string `json:"state"`

	// Status is the human-readable status line
	Status string `json:"status"`
}

// New creates a controller from the runtime configuration. An empty docker
// socket falls back to environment defaults (DOCKER_HOST or the local
// socket).
func New(cfg *config.RuntimeConfig) (*Controller, error) {
	opts := []dockerclient.Opt{
		dockerclient.WithAPIVersionNegotiation(),
	}
	if cfg.DockerSocket != "" {
		opts = append(opts, dockerclient.WithHost(cfg.DockerSocket))
	} else {
		opts = append(opts, dockerclient.FromEnv)
	}

	cli, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &Controller{
		client:         cli,
		restartTimeout: cfg.RestartTimeout,
		stopTimeout:    cfg.StopTimeout,
	}, nil
}

// NewWithClient creates a controller around an existing Docker client.
// Used by tests.
func NewWithClient(cli dockerclient.APIClient, restartTimeout, stopTimeout time.Duration) *Controller {
	return &Controller{
		client:         cli,
		restartTimeout: restartTimeout,
		stopTimeout:    stopTimeout,
	}
}

// Restart restarts every container of the named stack. The whole operation
// is bounded by the configured restart timeout so a hung runtime cannot
// block future reconciliations. Per-container failures are collected into
// the report rather than aborting the remaining containers.
func (c *Controller) Restart(ctx context.Context, stack string) (*models.RestartReport, error) {
	ctx, cancel := context.WithTimeout(ctx, c.restartTimeout)
	defer cancel()

	started := time.Now()

	report := &models.RestartReport{
		Stack:  stack,
		Failed: make(map[string]string),
	}

	containers, err := c.stackContainers(ctx, stack)
	if err != nil {
		return report, fmt.Errorf("failed to list containers for stack %s: %w", stack, err)
	}

	if len(containers) == 0 {
		report.Output = fmt.Sprintf("stack %s has no containers", stack)
		report.Duration = time.Since(started)
		return report, nil
	}

	stopSeconds := int(c.stopTimeout.Seconds())

	var lines []string
	for _, ctr := range containers {
		name := containerName(ctr)
		if err := c.client.ContainerRestart(ctx, ctr.ID, container.StopOptions{Timeout: &stopSeconds}); err != nil {
			report.Failed[name] = err.Error()
			lines = append(lines, fmt.Sprintf("restart %s: %v", name, err))
			continue
		}
		report.Restarted = append(report.Restarted, name)
		lines = append(lines, fmt.Sprintf("restart %s: ok", name))
	}

	report.Output = strings.Join(lines, "\n")
	report.Duration = time.Since(started)

	if len(report.Failed) > 0 {
		return report, fmt.Errorf("restart of stack %s failed for %d of %d container(s)",
			stack, len(report.Failed), len(containers))
	}

	return report, nil
}

// Status lists the current state of a stack's containers.
func (c *Controller) Status(ctx context.Context, stack string) ([]ContainerState, error) {
	containers, err := c.stackContainers(ctx, stack)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers for stack %s: %w", stack, err)
	}

	states := make([]ContainerState, 0, len(containers))
	for _, ctr := range containers {
		states = append(states, ContainerState{
			ID:     ctr.ID,
			Name:   containerName(ctr),
			Image:  ctr.Image,
			State:  ctr.State,
			Status: ctr.Status,
		})
	}

	return states, nil
}

// Close releases the underlying Docker client.
func (c *Controller) Close() error {
	return c.client.Close()
}

// stackContainers lists all containers labeled with the stack's compose
// project name, including stopped ones.
func (c *Controller) stackContainers(ctx context.Context, stack string) ([]container.Summary, error) {
	f := filters.NewArgs(
		filters.Arg("label", fmt.Sprintf("%s=%s", composeProjectLabel, stack)),
	)

	return c.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: f,
	})
}

// containerName returns the primary container name without the leading slash.
func containerName(ctr container.Summary) string {
	if len(ctr.Names) == 0 {
		return ctr.ID
	}
	return strings.TrimPrefix(ctr.Names[0], "/")
}
