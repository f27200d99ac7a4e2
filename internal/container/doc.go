// SPDX-License-Identifier: MPL-2.0

// Package container probes the host's container engine (Docker or Podman)
// and its compose tooling.
//
// The Engine interface reports the client version and whether the daemon or
// service answers. DockerEngine and PodmanEngine both embed BaseCLIEngine for
// command construction through an execx.Runner.
//
// Compose detection tries the engine's v2 CLI plugin first and the classic
// standalone binary second; DetectCompose returns whichever answers.
package container
