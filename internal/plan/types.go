// Package plan implements the Plan/Manifest/Task data model (spec §3)
// and its per-host lazy iteration (spec §4.1), grounded behaviorally on
// original_source/src/core/{manifest,plan,task}.rs.
package plan

import "github.com/sira-systems/sira/internal/action"

// Task is a named, ordered list of actions with a declared executing
// user and variables (spec §3, §6).
type Task struct {
	// Source is set by the loader to the origin file path; it is never
	// read from or written to YAML (spec §3).
	Source string `yaml:"-"`

	Name    string          `yaml:"name" validate:"required"`
	User    string          `yaml:"user,omitempty"`
	Actions []action.Action `yaml:"actions"`
	Vars    Vars            `yaml:"vars,omitempty"`
}

// Manifest binds a named group of tasks to a set of hosts (spec §3, §6).
// Include holds resolved, inline Tasks; the distinct ManifestFile form
// (below) describes the on-disk shape whose Include is a list of
// task-file paths. The loader (internal/planload) decodes manifests
// through its own manifestDoc, which accepts both include forms.
type Manifest struct {
	Source string `yaml:"-"`

	Name    string   `yaml:"name" validate:"required"`
	Hosts   []string `yaml:"hosts" validate:"required,min=1"`
	Include []Task   `yaml:"include"`
	Vars    Vars     `yaml:"vars,omitempty"`
}

// ManifestFile is the on-disk serialization form whose Include is a
// sequence of task-file paths rather than inline Task objects (spec §3).
// Resolving a ManifestFile into a Manifest is a loader concern
// (internal/planload), not this package's.
type ManifestFile struct {
	Source string `yaml:"-"`

	Name    string   `yaml:"name" validate:"required"`
	Hosts   []string `yaml:"hosts" validate:"required,min=1"`
	Include []string `yaml:"include"`
	Vars    Vars     `yaml:"vars,omitempty"`
}

// HasHost reports whether hosts contains target.
func HasHost(hosts []string, target string) bool {
	for _, h := range hosts {
		if h == target {
			return true
		}
	}
	return false
}

// Plan is the unit of execution: an ordered sequence of manifests
// (spec §3).
type Plan struct {
	Manifests []Manifest
}

// Hosts returns every host named by any manifest in the plan, in the
// order each host is first seen (spec §4.6: "a host is named if any
// manifest lists it").
func (p Plan) Hosts() []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, m := range p.Manifests {
		for _, h := range m.Hosts {
			if !seen[h] {
				seen[h] = true
				hosts = append(hosts, h)
			}
		}
	}
	return hosts
}

// HostAction pairs an Action with its host and the manifest/task that
// own it: the unit passed from iteration to execution (spec §3). It
// holds shared, read-only references into the plan rather than cloning
// it (spec §9: "never duplicate plan ownership").
type HostAction struct {
	Host     string
	Manifest *Manifest
	Task     *Task
	Action   action.Action
}
