// Package security implements the engine's trust boundary around
// attacker-reachable input: prototype-pollution-safe object sanitization for
// data loaded from durable storage, anti-SSRF validation of webhook targets,
// and HTTP header sanitization against header injection. Everything here is
// deliberately dependency-free so it can be applied at every ingress point.
package security
