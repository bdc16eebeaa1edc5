// Package main provides a CLI that smoke tests the service container image.
// It builds the image, starts a container from it, waits for the HTTP
// endpoints to come up, and tears everything down again.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/NirelNemirovsky/open-deep-research/internal/config"
	"github.com/NirelNemirovsky/open-deep-research/internal/smoke"
	"github.com/NirelNemirovsky/open-deep-research/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		profilePath = flag.String("profile", "", "Path to a smoke profile YAML (default: configs/smoke.yaml when present)")
		image       = flag.String("image", "", "Override the image tag to build and run")
		container   = flag.String("container", "", "Override the container name")
		port        = flag.Int("port", 0, "Override the published port")
		contextDir  = flag.String("context", "", "Override the docker build context directory")
		timeout     = flag.Duration("timeout", 0, "Overall timeout for the run (0 means no limit)")
		logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		logFormat   = flag.String("log-format", "text", "Log format: text, json")
	)
	flag.Parse()

	log := logger.New(*logLevel, *logFormat, "stdout")

	profile, err := config.LoadSmokeProfile(*profilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading smoke profile: %v\n", err)
		return 1
	}

	opts := optionsFromProfile(profile)
	if *image != "" {
		opts.Image = *image
	}
	if *container != "" {
		opts.ContainerName = *container
	}
	if *port != 0 {
		opts.Port = *port
	}
	if *contextDir != "" {
		opts.ContextDir = *contextDir
	}

	ctx := context.Background()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	start := time.Now()
	runner := smoke.NewRunner(opts, nil, log)
	if err := runner.Run(ctx); err != nil {
		log.WithError(err).Error("Smoke run failed")
		return 1
	}

	log.WithField("duration", time.Since(start).String()).Info("Smoke run passed")
	return 0
}

// optionsFromProfile maps the loaded profile onto runner options.
func optionsFromProfile(profile *config.SmokeProfile) smoke.Options {
	probes := make([]smoke.Probe, 0, len(profile.Probes))
	for _, p := range profile.Probes {
		probes = append(probes, smoke.Probe{Path: p.Path, Deadline: p.Deadline})
	}

	return smoke.Options{
		Image:         profile.Image,
		ContainerName: profile.ContainerName,
		Port:          profile.Port,
		ContextDir:    profile.ContextDir,
		EnvFile:       profile.EnvFile,
		EnvTemplate:   profile.EnvTemplate,
		Interval:      profile.Interval,
		ProbeTimeout:  profile.ProbeTimeout,
		Probes:        probes,
	}
}
