package action

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCommandRoundTrip(t *testing.T) {
	a := Action{Kind: KindCommand, Command: &Command{Commands: []string{"echo hi", "echo bye"}}}

	out, err := yaml.Marshal(a)
	require.NoError(t, err)

	var decoded Action
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, a, decoded)
}

func TestCommandTitle(t *testing.T) {
	a := Action{Kind: KindCommand, Command: &Command{Commands: []string{"echo hi", "echo bye"}}}
	require.Equal(t, "command: echo hi; echo bye", a.Title())
}

func TestLineInFileRoundTripWithOptionalFields(t *testing.T) {
	pattern := "foo"
	a := Action{Kind: KindLineInFile, LineInFile: &LineInFile{
		Path: "/etc/hosts", Line: "127.0.0.1 localhost", Pattern: &pattern, Indent: true,
	}}

	out, err := yaml.Marshal(a)
	require.NoError(t, err)

	var decoded Action
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, a, decoded)
	require.Equal(t, "line_in_file (/etc/hosts): 127.0.0.1 localhost", a.Title())
}

func TestScriptTitle(t *testing.T) {
	a := Action{Kind: KindScript, Script: &Script{Name: "migrate.sh", User: "deploy", Contents: "echo hi"}}
	require.Equal(t, "script (deploy): migrate.sh", a.Title())
}

func TestUploadTitle(t *testing.T) {
	a := Action{Kind: KindUpload, Upload: &Upload{From: "./app.bin", To: "/opt/app/app.bin"}}
	require.Equal(t, "upload: ./app.bin -> /opt/app/app.bin", a.Title())
}

func TestUnmarshalRejectsMultipleVariantKeys(t *testing.T) {
	doc := `
command: [echo hi]
script:
  name: x
  user: root
  contents: echo hi
`
	var a Action
	err := yaml.Unmarshal([]byte(doc), &a)
	require.Error(t, err)
}

func TestUnmarshalRejectsUnknownKey(t *testing.T) {
	doc := `foo: bar`
	var a Action
	err := yaml.Unmarshal([]byte(doc), &a)
	require.Error(t, err)
}

func TestCommandRequiresNonEmptySequence(t *testing.T) {
	doc := `command: []`
	var a Action
	err := yaml.Unmarshal([]byte(doc), &a)
	require.Error(t, err)
}

func TestUploadRoundTripWithPermissions(t *testing.T) {
	perms := "0644"
	a := Action{Kind: KindUpload, Upload: &Upload{
		From: "a", To: "b", User: "u", Group: "g", Permissions: &perms, Overwrite: true,
	}}
	out, err := yaml.Marshal(a)
	require.NoError(t, err)
	var decoded Action
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, a, decoded)
}

func TestDownloadRoundTrip(t *testing.T) {
	a := Action{Kind: KindDownload, Download: &Download{From: "host:/var/log/app.log", To: "./app.log"}}
	out, err := yaml.Marshal(a)
	require.NoError(t, err)
	var decoded Action
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	require.Equal(t, a, decoded)
}
