package config

import (
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker reports whether /.dockerenv exists. The result is cached.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal when running
// in a container, so a database or Redis on the host machine stays reachable.
func ResolveHostForDocker(host string) string {
	if host == "localhost" || host == "127.0.0.1" {
		if IsRunningInDocker() {
			return "host.docker.internal"
		}
	}
	return host
}
