package jsontransport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const loaderLogPrefix = "jsontransport:loader"

// EnvironmentsFileEnv names the variable holding an environments file path.
const EnvironmentsFileEnv = "PLATFORM_ENVIRONMENTS_FILE"

// EnvironmentsFile is the on-disk base URL table:
//
//	{"environments": {"sandbox": "https://sandbox.example.com", "production": "https://api.example.com"}}
type EnvironmentsFile struct {
	Environments map[string]string `json:"environments"`
}

// LoadBaseURLs reads the first parseable environments file. Paths are tried in
// order: the given paths, PLATFORM_ENVIRONMENTS_FILE, then config/environments.json
// and environments.json. With no file found the table is empty, which still
// resolves EnvironmentLocal to DefaultLocalBaseURL.
func LoadBaseURLs(paths ...string) (StaticBaseURLs, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv(EnvironmentsFileEnv); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/environments.json", "environments.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		urls, err := ParseBaseURLs(data)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse environments file %s: %v", loaderLogPrefix, p, err))
			continue
		}
		slog.Info(fmt.Sprintf("%s - Loaded %d base URLs from %s", loaderLogPrefix, len(urls), p))
		return urls, nil
	}

	slog.Debug(fmt.Sprintf("%s - No environments file found", loaderLogPrefix))
	return StaticBaseURLs{}, nil
}

// ParseBaseURLs decodes an EnvironmentsFile. Unknown environment names are rejected.
func ParseBaseURLs(data []byte) (StaticBaseURLs, error) {
	var f EnvironmentsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s - decode: %w", loaderLogPrefix, err)
	}
	urls := make(StaticBaseURLs, len(f.Environments))
	for name, u := range f.Environments {
		env, err := ParseEnvironment(name)
		if err != nil {
			return nil, err
		}
		urls[env] = strings.TrimSpace(u)
	}
	return urls, nil
}

// Merge returns a copy of s with override's non-empty entries applied on top.
func (s StaticBaseURLs) Merge(override StaticBaseURLs) StaticBaseURLs {
	out := make(StaticBaseURLs, len(s)+len(override))
	for env, u := range s {
		out[env] = u
	}
	for env, u := range override {
		if u != "" {
			out[env] = u
		}
	}
	return out
}
