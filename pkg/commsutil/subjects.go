package commsutil

import "strings"

// SubjectEventPrefix is the default root for pipeline event subjects.
const SubjectEventPrefix = "platform.events"

// BuildEventSubject joins prefix and an event kind ("session.expired") into a subject.
// An empty prefix falls back to SubjectEventPrefix.
func BuildEventSubject(prefix, kind string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = SubjectEventPrefix
	}
	kind = strings.Trim(strings.TrimSpace(kind), ".")
	if kind == "" {
		return prefix
	}
	return prefix + "." + kind
}

// BuildEventWildcard returns the subscription subject matching every event under prefix.
func BuildEventWildcard(prefix string) string {
	return BuildEventSubject(prefix, ">")
}
