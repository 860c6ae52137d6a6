package plan

// HostPlanIter yields HostActions for one host, lazily and single-pass
// (spec §4.1). It walks manifests in order, skipping any manifest whose
// Hosts does not name the target host; within a kept manifest it walks
// tasks in order, and within each task, actions in order. Iteration
// never dedups, reorders, or revisits (spec §4.1, §8).
type HostPlanIter struct {
	host      string
	manifests []Manifest

	mi, ti, ai int
}

// Iterate returns a lazy iterator over host's HostActions in this plan.
func (p Plan) Iterate(host string) *HostPlanIter {
	return &HostPlanIter{host: host, manifests: p.Manifests}
}

// Next returns the next HostAction, or ok=false once iteration is
// exhausted. Next must not be called again after it returns ok=false.
func (it *HostPlanIter) Next() (ha HostAction, ok bool) {
	for it.mi < len(it.manifests) {
		m := &it.manifests[it.mi]

		if !HasHost(m.Hosts, it.host) {
			it.advanceManifest()
			continue
		}

		if it.ti >= len(m.Include) {
			it.advanceManifest()
			continue
		}

		task := &m.Include[it.ti]
		if it.ai >= len(task.Actions) {
			it.advanceTask()
			continue
		}

		act := task.Actions[it.ai]
		it.ai++
		return HostAction{Host: it.host, Manifest: m, Task: task, Action: act}, true
	}
	return HostAction{}, false
}

func (it *HostPlanIter) advanceManifest() {
	it.mi++
	it.ti = 0
	it.ai = 0
}

func (it *HostPlanIter) advanceTask() {
	it.ti++
	it.ai = 0
}
