package plan

import (
	"testing"

	"github.com/sira-systems/sira/internal/action"
	"github.com/stretchr/testify/require"
)

func cmdAction(cmds ...string) action.Action {
	return action.Action{Kind: action.KindCommand, Command: &action.Command{Commands: cmds}}
}

func TestIterateSkipsManifestsNotNamingHost(t *testing.T) {
	p := Plan{Manifests: []Manifest{
		{Name: "m1", Hosts: []string{"a"}, Include: []Task{{Name: "t1", Actions: []action.Action{cmdAction("echo 1")}}}},
		{Name: "m2", Hosts: []string{"b"}, Include: []Task{{Name: "t2", Actions: []action.Action{cmdAction("echo 2")}}}},
		{Name: "m3", Hosts: []string{"a", "b"}, Include: []Task{{Name: "t3", Actions: []action.Action{cmdAction("echo 3")}}}},
	}}

	it := p.Iterate("a")
	var titles []string
	for {
		ha, ok := it.Next()
		if !ok {
			break
		}
		titles = append(titles, ha.Action.Title())
	}

	require.Equal(t, []string{"command: echo 1", "command: echo 3"}, titles)
}

func TestIteratePreservesDeclaredOrderAcrossTasksAndActions(t *testing.T) {
	p := Plan{Manifests: []Manifest{
		{Name: "m1", Hosts: []string{"a"}, Include: []Task{
			{Name: "t1", Actions: []action.Action{cmdAction("one"), cmdAction("two")}},
			{Name: "t2", Actions: []action.Action{cmdAction("three")}},
		}},
	}}

	it := p.Iterate("a")
	var got []string
	for {
		ha, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, ha.Task.Name+":"+ha.Action.Command.Commands[0])
	}
	require.Equal(t, []string{"t1:one", "t1:two", "t2:three"}, got)
}

func TestIterateReturnsNoHostActionsWhenHostNotNamed(t *testing.T) {
	p := Plan{Manifests: []Manifest{
		{Name: "m1", Hosts: []string{"a"}, Include: []Task{{Name: "t1", Actions: []action.Action{cmdAction("x")}}}},
	}}

	it := p.Iterate("z")
	_, ok := it.Next()
	require.False(t, ok)
}

func TestPlanHostsDedupesAndPreservesFirstSeenOrder(t *testing.T) {
	p := Plan{Manifests: []Manifest{
		{Name: "m1", Hosts: []string{"b", "a"}},
		{Name: "m2", Hosts: []string{"a", "c"}},
	}}
	require.Equal(t, []string{"b", "a", "c"}, p.Hosts())
}
