package runner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mercator-hq/ganymede/pkg/codec"
	"mercator-hq/ganymede/pkg/config"
)

const (
	// DefaultBatchDir is where batch outputs land when no explicit output
	// path is given, created next to the input.
	DefaultBatchDir = "converted_output"

	// selfOverwriteSuffix is inserted before the extension when an output
	// path would clobber its own input.
	selfOverwriteSuffix = "_converted"
)

// job pairs one input document with its resolved output path.
type job struct {
	input  string
	output string
}

// planJobs resolves the input path into the ordered list of documents to
// convert and the output path each one writes to.
//
// A single file converts to converted_<name> next to the input unless an
// explicit output path is given; an existing output directory places the
// file inside it under its own name. A directory input (or the batch
// flag) mirrors the input tree under the output directory, which
// defaults to a converted_output sibling of the input. An output that
// would overwrite its own input gets a _converted suffix instead.
func planJobs(cfg *config.ConversionConfig) ([]job, error) {
	input := filepath.Clean(cfg.InputPath)
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}

	root := input
	files := []string{input}
	if info.IsDir() {
		if files, err = discoverYAML(input); err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no .yml or .yaml files under %s", input)
		}
	} else {
		root = filepath.Dir(input)
	}

	if info.IsDir() || cfg.Batch {
		return planBatch(cfg, input, root, files)
	}
	return planSingle(cfg, input)
}

func planSingle(cfg *config.ConversionConfig, input string) ([]job, error) {
	out := cfg.OutputPath
	switch {
	case out == "":
		prefix := cfg.OutputPrefix
		if prefix == "" {
			prefix = config.DefaultOutputPrefix
		}
		out = filepath.Join(filepath.Dir(input), prefix+filepath.Base(input))
	default:
		if fi, err := os.Stat(out); err == nil && fi.IsDir() {
			out = filepath.Join(out, filepath.Base(input))
		}
	}
	return []job{{input: input, output: avoidSelfOverwrite(input, out)}}, nil
}

// planBatch mirrors the tree rooted at root into the output directory,
// which defaults to a converted_output sibling of the input path.
func planBatch(cfg *config.ConversionConfig, input, root string, files []string) ([]job, error) {
	outDir := cfg.OutputPath
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(input), DefaultBatchDir)
	}
	if fi, err := os.Stat(outDir); err == nil && !fi.IsDir() {
		return nil, fmt.Errorf("batch output path %s is a file, need a directory", outDir)
	}

	jobs := make([]job, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return nil, fmt.Errorf("relativize %s: %w", f, err)
		}
		out := filepath.Join(outDir, rel)
		jobs = append(jobs, job{input: f, output: avoidSelfOverwrite(f, out)})
	}
	return jobs, nil
}

// discoverYAML collects the .yml and .yaml files under dir, skipping
// hidden files and directories. Paths come back in lexicographic order
// so sequence counters allocate reproducibly across runs.
func discoverYAML(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && hasYAMLExt(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func hasYAMLExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// avoidSelfOverwrite rewrites out when it resolves to its own input,
// turning items.yml into items_converted.yml.
func avoidSelfOverwrite(in, out string) string {
	if !samePath(in, out) {
		return out
	}
	ext := filepath.Ext(out)
	base := strings.TrimSuffix(filepath.Base(out), ext)
	return filepath.Join(filepath.Dir(out), base+selfOverwriteSuffix+ext)
}

func samePath(a, b string) bool {
	aa, err := filepath.Abs(a)
	if err != nil {
		return a == b
	}
	bb, err := filepath.Abs(b)
	if err != nil {
		return a == b
	}
	return aa == bb
}

// writeDocument encodes the document to path, creating parent
// directories as needed.
func writeDocument(doc *codec.Document, path string) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
