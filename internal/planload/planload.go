// Package planload resolves on-disk manifest/task YAML files into a
// plan.Plan (spec §6): a ManifestFile's Include entries are paths to
// Task files, resolved relative to the manifest file's own directory
// and read into inline plan.Tasks. Grounded on the teacher's config
// loader idiom (read file, unmarshal into a typed struct, validate with
// go-playground/validator) applied to Sira's manifest/task schema
// instead of the teacher's step/pipeline schema.
package planload

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/sira-systems/sira/internal/plan"
	sirerrors "github.com/sira-systems/sira/pkg/errors"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// LoadPlan reads each of files as a manifest file (spec §6), resolves
// its Include paths into inline Tasks, and returns the assembled Plan
// in file order (spec §3: "Plans are built once ... never mutated").
func LoadPlan(files []string) (plan.Plan, error) {
	var p plan.Plan
	for _, f := range files {
		m, err := loadManifest(f)
		if err != nil {
			return plan.Plan{}, err
		}
		p.Manifests = append(p.Manifests, m)
	}
	return p, nil
}

// manifestDoc mirrors plan.ManifestFile's schema but leaves Include
// undecoded: spec.md §6 allows a manifest's include list to hold either
// inline Task objects or task-file path strings, and the two decode to
// different Go shapes, so the choice is made per entry once the raw
// YAML node kind is known (see loadManifest).
type manifestDoc struct {
	Source string `yaml:"-"`

	Name    string      `yaml:"name" validate:"required"`
	Hosts   []string    `yaml:"hosts" validate:"required,min=1"`
	Include []yaml.Node `yaml:"include"`
	Vars    plan.Vars   `yaml:"vars,omitempty"`
}

func loadManifest(path string) (plan.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan.Manifest{}, sirerrors.NewSchemaError(path, "read manifest file", err)
	}

	var mf manifestDoc
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return plan.Manifest{}, sirerrors.NewSchemaError(path, "parse manifest YAML", err)
	}
	mf.Source = path

	if err := validate.Struct(mf); err != nil {
		return plan.Manifest{}, sirerrors.NewSchemaError(path, "validate manifest", err)
	}

	dir := filepath.Dir(path)
	tasks := make([]plan.Task, 0, len(mf.Include))
	for _, node := range mf.Include {
		task, err := resolveInclude(path, dir, node)
		if err != nil {
			return plan.Manifest{}, err
		}
		tasks = append(tasks, task)
	}

	return plan.Manifest{
		Source:  mf.Source,
		Name:    mf.Name,
		Hosts:   mf.Hosts,
		Include: tasks,
		Vars:    mf.Vars,
	}, nil
}

// resolveInclude resolves one include entry of manifestPath: a scalar
// node is a path to a task file (resolved relative to the manifest's own
// directory unless absolute); a mapping node is an inline Task, whose
// Source is the manifest file itself since it has no file of its own
// (spec.md §6: "either a sequence of inline Task objects, or a sequence
// of paths to Task files").
func resolveInclude(manifestPath, dir string, node yaml.Node) (plan.Task, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var rel string
		if err := node.Decode(&rel); err != nil {
			return plan.Task{}, sirerrors.NewSchemaError(manifestPath, "decode include path", err)
		}
		taskPath := rel
		if !filepath.IsAbs(taskPath) {
			taskPath = filepath.Join(dir, rel)
		}
		return loadTask(taskPath)

	case yaml.MappingNode:
		var task plan.Task
		if err := node.Decode(&task); err != nil {
			return plan.Task{}, sirerrors.NewSchemaError(manifestPath, "decode inline task", err)
		}
		task.Source = manifestPath
		if err := validate.Struct(task); err != nil {
			return plan.Task{}, sirerrors.NewSchemaError(manifestPath, "validate inline task", err)
		}
		return task, nil

	default:
		return plan.Task{}, sirerrors.NewSchemaError(manifestPath, "include entries must be a task-file path or an inline task mapping", nil)
	}
}

func loadTask(path string) (plan.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan.Task{}, sirerrors.NewSchemaError(path, "read task file", err)
	}

	var task plan.Task
	if err := yaml.Unmarshal(data, &task); err != nil {
		return plan.Task{}, sirerrors.NewSchemaError(path, "parse task YAML", err)
	}
	task.Source = path

	if err := validate.Struct(task); err != nil {
		return plan.Task{}, sirerrors.NewSchemaError(path, "validate task", err)
	}

	return task, nil
}
