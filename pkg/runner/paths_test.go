package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mercator-hq/ganymede/pkg/config"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("items: {}\n"), 0o644))
}

func TestPlanJobs_SingleFileDefault(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.yml")
	writeFile(t, in)

	jobs, err := planJobs(&config.ConversionConfig{InputPath: in})
	require.NoError(t, err)
	require.Equal(t, []job{
		{input: in, output: filepath.Join(dir, "converted_items.yml")},
	}, jobs)
}

func TestPlanJobs_CustomPrefix(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.yml")
	writeFile(t, in)

	jobs, err := planJobs(&config.ConversionConfig{InputPath: in, OutputPrefix: "v2_"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "v2_items.yml"), jobs[0].output)
}

func TestPlanJobs_ExplicitOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.yml")
	writeFile(t, in)
	out := filepath.Join(dir, "new", "items_v2.yml")

	jobs, err := planJobs(&config.ConversionConfig{InputPath: in, OutputPath: out})
	require.NoError(t, err)
	require.Equal(t, []job{{input: in, output: out}}, jobs)
}

func TestPlanJobs_OutputIntoExistingDir(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.yml")
	writeFile(t, in)
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(out, 0o755))

	jobs, err := planJobs(&config.ConversionConfig{InputPath: in, OutputPath: out})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "items.yml"), jobs[0].output)
}

func TestPlanJobs_SelfOverwrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.yml")
	writeFile(t, in)

	// Output names the input itself.
	jobs, err := planJobs(&config.ConversionConfig{InputPath: in, OutputPath: in})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "items_converted.yml"), jobs[0].output)

	// Output directory is the input's own directory.
	jobs, err = planJobs(&config.ConversionConfig{InputPath: in, OutputPath: dir})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "items_converted.yml"), jobs[0].output)
}

func TestPlanJobs_DirectoryInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "legacy")
	writeFile(t, filepath.Join(in, "b.yml"))
	writeFile(t, filepath.Join(in, "a.yaml"))
	writeFile(t, filepath.Join(in, "sub", "c.YML"))
	writeFile(t, filepath.Join(in, ".swap.yml"))
	writeFile(t, filepath.Join(in, ".hidden", "d.yml"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("x"), 0o644))

	jobs, err := planJobs(&config.ConversionConfig{InputPath: in})
	require.NoError(t, err)

	outDir := filepath.Join(dir, "converted_output")
	require.Equal(t, []job{
		{input: filepath.Join(in, "a.yaml"), output: filepath.Join(outDir, "a.yaml")},
		{input: filepath.Join(in, "b.yml"), output: filepath.Join(outDir, "b.yml")},
		{input: filepath.Join(in, "sub", "c.YML"), output: filepath.Join(outDir, "sub", "c.YML")},
	}, jobs)
}

func TestPlanJobs_SingleFileBatchMode(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "items.yml")
	writeFile(t, in)

	jobs, err := planJobs(&config.ConversionConfig{InputPath: in, Batch: true})
	require.NoError(t, err)
	require.Equal(t, []job{
		{input: in, output: filepath.Join(dir, "converted_output", "items.yml")},
	}, jobs)
}

func TestPlanJobs_BatchIntoInputDir(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "legacy")
	writeFile(t, filepath.Join(in, "a.yml"))

	jobs, err := planJobs(&config.ConversionConfig{InputPath: in, OutputPath: in})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(in, "a_converted.yml"), jobs[0].output)
}

func TestPlanJobs_BatchOutputIsFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "legacy")
	writeFile(t, filepath.Join(in, "a.yml"))
	out := filepath.Join(dir, "occupied")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0o644))

	_, err := planJobs(&config.ConversionConfig{InputPath: in, OutputPath: out})
	require.Error(t, err)
	require.Contains(t, err.Error(), "need a directory")
}

func TestPlanJobs_NoYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(in, 0o755))

	_, err := planJobs(&config.ConversionConfig{InputPath: in})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no .yml or .yaml files")
}

func TestPlanJobs_MissingInput(t *testing.T) {
	_, err := planJobs(&config.ConversionConfig{InputPath: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
}

func TestHasYAMLExt(t *testing.T) {
	for name, want := range map[string]bool{
		"items.yml":  true,
		"items.yaml": true,
		"ITEMS.YML":  true,
		"items.json": false,
		"items":      false,
	} {
		require.Equal(t, want, hasYAMLExt(name), name)
	}
}
