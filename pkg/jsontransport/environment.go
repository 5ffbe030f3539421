// Package jsontransport is the caller-facing JSON API client built on the dispatcher.
package jsontransport

import (
	"fmt"
	"strings"
)

// Environment selects the platform deployment.
type Environment string

const (
	EnvironmentLocal      Environment = "local"
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentStaging    Environment = "staging"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment accepts the environment names case-insensitively.
func ParseEnvironment(s string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(s))); env {
	case EnvironmentLocal, EnvironmentSandbox, EnvironmentStaging, EnvironmentProduction:
		return env, nil
	}
	return "", fmt.Errorf("%s - unknown environment %q (want local, sandbox, staging or production)", logPrefix, s)
}

// BaseURLProvider maps an environment to the API base URL.
type BaseURLProvider interface {
	BaseURL(env Environment) (string, error)
}

// StaticBaseURLs is a fixed environment to URL table.
type StaticBaseURLs map[Environment]string

// DefaultLocalBaseURL is used for EnvironmentLocal when no URL is configured.
const DefaultLocalBaseURL = "http://localhost:5000"

// BaseURL returns the URL configured for env.
func (s StaticBaseURLs) BaseURL(env Environment) (string, error) {
	if u, ok := s[env]; ok && u != "" {
		return strings.TrimRight(u, "/"), nil
	}
	if env == EnvironmentLocal {
		return DefaultLocalBaseURL, nil
	}
	return "", fmt.Errorf("%s - no base URL configured for environment %s", logPrefix, env)
}
