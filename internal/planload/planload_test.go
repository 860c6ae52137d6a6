package planload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlanResolvesIncludedTaskFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "webserver.yaml", `
name: webserver
user: root
actions:
  - command: ["echo hi"]
`)
	manifestPath := writeFile(t, dir, "manifest.yaml", `
name: fleet
hosts: [web1, web2]
include:
  - webserver.yaml
`)

	p, err := LoadPlan([]string{manifestPath})
	require.NoError(t, err)
	require.Len(t, p.Manifests, 1)
	require.Equal(t, "fleet", p.Manifests[0].Name)
	require.Equal(t, []string{"web1", "web2"}, p.Manifests[0].Hosts)
	require.Len(t, p.Manifests[0].Include, 1)
	require.Equal(t, "webserver", p.Manifests[0].Include[0].Name)
	require.Equal(t, "root", p.Manifests[0].Include[0].User)
}

func TestLoadPlanResolvesInlineTasks(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "manifest.yaml", `
name: fleet
hosts: [web1, web2]
include:
  - name: webserver
    user: root
    actions:
      - command: ["echo hi"]
  - name: database
    actions:
      - command: ["echo db"]
`)

	p, err := LoadPlan([]string{manifestPath})
	require.NoError(t, err)
	require.Len(t, p.Manifests, 1)
	require.Len(t, p.Manifests[0].Include, 2)
	require.Equal(t, "webserver", p.Manifests[0].Include[0].Name)
	require.Equal(t, "root", p.Manifests[0].Include[0].User)
	require.Equal(t, manifestPath, p.Manifests[0].Include[0].Source)
	require.Equal(t, "database", p.Manifests[0].Include[1].Name)
}

func TestLoadPlanRejectsInlineTaskMissingName(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "manifest.yaml", `
name: fleet
hosts: [web1]
include:
  - actions:
      - command: ["echo hi"]
`)

	_, err := LoadPlan([]string{manifestPath})
	require.Error(t, err)
}

func TestLoadPlanRejectsManifestMissingHosts(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "manifest.yaml", `
name: fleet
hosts: []
include: []
`)

	_, err := LoadPlan([]string{manifestPath})
	require.Error(t, err)
}

func TestLoadPlanRejectsMissingTaskFile(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "manifest.yaml", `
name: fleet
hosts: [web1]
include:
  - missing.yaml
`)

	_, err := LoadPlan([]string{manifestPath})
	require.Error(t, err)
}

func TestLoadPlanPreservesVarsOrder(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeFile(t, dir, "manifest.yaml", `
name: fleet
hosts: [web1]
include: []
vars:
  zeta: "1"
  alpha: "2"
`)

	p, err := LoadPlan([]string{manifestPath})
	require.NoError(t, err)
	require.Equal(t, []string{"zeta", "alpha"}, p.Manifests[0].Vars.Keys())
}
