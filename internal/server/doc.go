// Package server hosts the operational HTTP endpoints of the bot: the
// Prometheus /metrics endpoint and a /healthz probe.
package server
