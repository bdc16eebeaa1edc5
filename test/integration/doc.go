// Package integration contains integration tests for the agent service.
//
// These tests use testcontainers to spin up real containers and exercise
// the smoke runner's readiness polling against them. The full docker
// smoke run is additionally gated behind RUN_DOCKER_SMOKE because it
// builds images on the host docker daemon.
package integration
