// Package action implements the Action tagged variant (spec §3, §6):
// Command, LineInFile, Script, Upload, and the optional Download. The
// wire form is an externally-tagged YAML mapping with exactly one key,
// the lowercase variant name (spec §6), so (de)serialization needs a
// custom UnmarshalYAML/MarshalYAML pair rather than a plain struct tag,
// the same technique the teacher uses for its own tagged-variant step
// types (internal/config/types.go in alexisbeaulieu97-Streamy).
package action

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant of Action is populated.
type Kind string

const (
	KindCommand    Kind = "command"
	KindLineInFile Kind = "line_in_file"
	KindScript     Kind = "script"
	KindUpload     Kind = "upload"
	KindDownload   Kind = "download"
)

// Command runs each string as a shell-style-word-split command in order
// (spec §3, §4.4).
type Command struct {
	Commands []string
}

// LineInFile mutates path to ensure line is present (spec §3, §4.7).
type LineInFile struct {
	Path    string
	Line    string
	Pattern *string
	After   *string
	Indent  bool
}

// Script runs Contents as a temp script under User's identity (spec §3, §4.4).
type Script struct {
	Name     string
	User     string
	Contents string
}

// Upload delivers a control-node file to the managed host (spec §3, §4.4, §4.5).
type Upload struct {
	From        string
	To          string
	User        string
	Group       string
	Permissions *string
	Overwrite   bool
}

// Download is the optional fifth action; the spec keeps it optional and
// requires no verification semantics for it (spec §4.5, §9 Open Questions).
type Download struct {
	From string
	To   string
}

// Action is the closed, four-or-five-variant sum type. Exactly one field
// besides Kind is populated, matching Kind. Dispatch on Kind must be
// exhaustive everywhere an Action is consumed (spec §9).
type Action struct {
	Kind       Kind
	Command    *Command
	LineInFile *LineInFile
	Script     *Script
	Upload     *Upload
	Download   *Download
}

// Title renders the report-facing action title (spec §4.9).
func (a Action) Title() string {
	switch a.Kind {
	case KindCommand:
		return "command: " + strings.Join(a.Command.Commands, "; ")
	case KindLineInFile:
		return fmt.Sprintf("line_in_file (%s): %s", a.LineInFile.Path, a.LineInFile.Line)
	case KindScript:
		return fmt.Sprintf("script (%s): %s", a.Script.User, a.Script.Name)
	case KindUpload:
		return fmt.Sprintf("upload: %s -> %s", a.Upload.From, a.Upload.To)
	case KindDownload:
		return fmt.Sprintf("download: %s -> %s", a.Download.From, a.Download.To)
	default:
		return fmt.Sprintf("unknown action (%s)", a.Kind)
	}
}

// CanonicalText produces the signed/transmitted textual form of exactly
// this action (spec §4.2, §4.5, §6): a single-key YAML mapping.
func (a Action) CanonicalText() ([]byte, error) {
	out, err := yaml.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("serialize action: %w", err)
	}
	return out, nil
}

// MarshalYAML implements the externally-tagged wire form: the tag is the
// lowercase variant name used directly as the mapping key (spec §6).
func (a Action) MarshalYAML() (interface{}, error) {
	switch a.Kind {
	case KindCommand:
		if a.Command == nil {
			return nil, fmt.Errorf("action: kind %q has no command payload", a.Kind)
		}
		return map[string]interface{}{"command": a.Command.Commands}, nil
	case KindLineInFile:
		if a.LineInFile == nil {
			return nil, fmt.Errorf("action: kind %q has no line_in_file payload", a.Kind)
		}
		body := map[string]interface{}{
			"path":   a.LineInFile.Path,
			"line":   a.LineInFile.Line,
			"indent": a.LineInFile.Indent,
		}
		if a.LineInFile.Pattern != nil {
			body["pattern"] = *a.LineInFile.Pattern
		}
		if a.LineInFile.After != nil {
			body["after"] = *a.LineInFile.After
		}
		return map[string]interface{}{"line_in_file": body}, nil
	case KindScript:
		if a.Script == nil {
			return nil, fmt.Errorf("action: kind %q has no script payload", a.Kind)
		}
		return map[string]interface{}{"script": map[string]interface{}{
			"name":     a.Script.Name,
			"user":     a.Script.User,
			"contents": a.Script.Contents,
		}}, nil
	case KindUpload:
		if a.Upload == nil {
			return nil, fmt.Errorf("action: kind %q has no upload payload", a.Kind)
		}
		body := map[string]interface{}{
			"from":      a.Upload.From,
			"to":        a.Upload.To,
			"user":      a.Upload.User,
			"group":     a.Upload.Group,
			"overwrite": a.Upload.Overwrite,
		}
		if a.Upload.Permissions != nil {
			body["permissions"] = *a.Upload.Permissions
		}
		return map[string]interface{}{"upload": body}, nil
	case KindDownload:
		if a.Download == nil {
			return nil, fmt.Errorf("action: kind %q has no download payload", a.Kind)
		}
		return map[string]interface{}{"download": map[string]interface{}{
			"from": a.Download.From,
			"to":   a.Download.To,
		}}, nil
	default:
		return nil, fmt.Errorf("action: unknown kind %q", a.Kind)
	}
}

// UnmarshalYAML decodes the externally-tagged wire form, requiring
// exactly one recognized variant key (spec §3: "exactly one of").
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]yaml.Node
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("action: expected a mapping with one variant key: %w", err)
	}

	var found []string
	for key := range raw {
		if isKnownKind(key) {
			found = append(found, key)
		}
	}
	if len(found) == 0 {
		return fmt.Errorf("action: no recognized variant key (command, line_in_file, script, upload, download)")
	}
	if len(found) > 1 {
		return fmt.Errorf("action: exactly one variant key is required, found %v", found)
	}

	key := found[0]
	node := raw[key]

	switch Kind(key) {
	case KindCommand:
		var commands []string
		if err := node.Decode(&commands); err != nil {
			return fmt.Errorf("action: command: %w", err)
		}
		if len(commands) == 0 {
			return fmt.Errorf("action: command: commands must be non-empty")
		}
		a.Kind = KindCommand
		a.Command = &Command{Commands: commands}

	case KindLineInFile:
		var body struct {
			Path    string  `yaml:"path"`
			Line    string  `yaml:"line"`
			Pattern *string `yaml:"pattern"`
			After   *string `yaml:"after"`
			Indent  bool    `yaml:"indent"`
		}
		if err := node.Decode(&body); err != nil {
			return fmt.Errorf("action: line_in_file: %w", err)
		}
		if body.Path == "" {
			return fmt.Errorf("action: line_in_file: path is required")
		}
		a.Kind = KindLineInFile
		a.LineInFile = &LineInFile{
			Path:    body.Path,
			Line:    body.Line,
			Pattern: body.Pattern,
			After:   body.After,
			Indent:  body.Indent,
		}

	case KindScript:
		var body struct {
			Name     string `yaml:"name"`
			User     string `yaml:"user"`
			Contents string `yaml:"contents"`
		}
		if err := node.Decode(&body); err != nil {
			return fmt.Errorf("action: script: %w", err)
		}
		if body.Name == "" {
			return fmt.Errorf("action: script: name is required")
		}
		a.Kind = KindScript
		a.Script = &Script{Name: body.Name, User: body.User, Contents: body.Contents}

	case KindUpload:
		var body struct {
			From        string  `yaml:"from"`
			To          string  `yaml:"to"`
			User        string  `yaml:"user"`
			Group       string  `yaml:"group"`
			Permissions *string `yaml:"permissions"`
			Overwrite   bool    `yaml:"overwrite"`
		}
		if err := node.Decode(&body); err != nil {
			return fmt.Errorf("action: upload: %w", err)
		}
		if body.From == "" || body.To == "" {
			return fmt.Errorf("action: upload: from and to are required")
		}
		a.Kind = KindUpload
		a.Upload = &Upload{
			From: body.From, To: body.To, User: body.User, Group: body.Group,
			Permissions: body.Permissions, Overwrite: body.Overwrite,
		}

	case KindDownload:
		var body struct {
			From string `yaml:"from"`
			To   string `yaml:"to"`
		}
		if err := node.Decode(&body); err != nil {
			return fmt.Errorf("action: download: %w", err)
		}
		if body.From == "" || body.To == "" {
			return fmt.Errorf("action: download: from and to are required")
		}
		a.Kind = KindDownload
		a.Download = &Download{From: body.From, To: body.To}
	}

	return nil
}

// UploadStagingPath is the fixed convention both the transport (which
// streams bytes there before invoking the client executor) and the
// client executor (which relocates from there into place) use to agree
// on where an upload's bytes land on a managed host ahead of time,
// without needing to widen the wire schema (spec §4.5).
func UploadStagingPath(to string) string {
	return fmt.Sprintf("/tmp/.sira-upload-%x", []byte(to))
}

func isKnownKind(key string) bool {
	switch Kind(key) {
	case KindCommand, KindLineInFile, KindScript, KindUpload, KindDownload:
		return true
	default:
		return false
	}
}
