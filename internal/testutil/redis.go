// Package testutil provides the ephemeral-store test harness used by the
// recommender core's integration tests: a self-contained Redis container
// spun up for each StartRedis call, no docker-compose dependency.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
)

// StartRedis launches a throwaway redis:7-alpine container and returns a
// connected *redis.Client plus a cleanup func. Tests that need a real store
// call this and t.Skip when Docker itself isn't available, keeping
// integration coverage optional in environments without a Docker daemon.
func StartRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("testutil: docker unavailable: %s", err)
		return nil, func() {}
	}
	pool.MaxWait = time.Minute

	resource, err := pool.RunWithOptions(
		&dockertest.RunOptions{
			Repository: "redis",
			Tag:        "7-alpine",
		},
		func(c *docker.HostConfig) {
			c.AutoRemove = true
			c.RestartPolicy = docker.RestartPolicy{Name: "no"}
		},
	)
	if err != nil {
		t.Skipf("testutil: starting redis container: %s", err)
		return nil, func() {}
	}

	addr := resource.GetHostPort("6379/tcp")
	var client *redis.Client
	if err := pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{Addr: addr})
		return client.Ping(context.Background()).Err()
	}); err != nil {
		_ = pool.Purge(resource)
		t.Skipf("testutil: redis never became ready: %s", err)
		return nil, func() {}
	}

	cleanup := func() {
		_ = client.Close()
		_ = pool.Purge(resource)
	}
	return client, cleanup
}

// UniquePrefix returns a keyspace prefix namespaced to the running test, so
// tests pointed at the same store don't collide.
func UniquePrefix(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("test:%s", t.Name())
}
