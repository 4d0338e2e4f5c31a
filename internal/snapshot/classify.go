package snapshot

import "strings"

// rule maps a predicate over (command, cwd) to a Kind
type rule struct {
	kind  Kind
	match func(cmd, cwd string) bool
}

// rules are evaluated top to bottom and the first match wins. The order is
// significant: a cwd under a workspace marker is Dev even when it also sits
// under a system path.
var rules = []rule{
	{KindContainer, func(cmd, _ string) bool {
		return containsAny(cmd, "docker", "containerd")
	}},
	{KindDev, func(_, cwd string) bool {
		return containsAny(cwd, "/_workspace/", "/_projects/")
	}},
	{KindSystem, func(_, cwd string) bool {
		return strings.HasPrefix(cwd, "/usr/sbin") || strings.HasPrefix(cwd, "/System")
	}},
	{KindPackageManager, func(_, cwd string) bool {
		return containsAny(cwd, "/opt/homebrew", "/usr/local/Cellar")
	}},
}

// Classify applies the heuristic rules to a command name and working directory
func Classify(cmd, cwd string) Kind {
	for _, r := range rules {
		if r.match(cmd, cwd) {
			return r.kind
		}
	}
	return KindOther
}

// classifyRecord classifies a record and then applies container evidence,
// which overrides every heuristic.
func classifyRecord(cmd, cwd, container string) Kind {
	kind := Classify(cmd, cwd)
	if container != "" {
		kind = KindContainer
	}
	return kind
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
