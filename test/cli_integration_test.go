//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

const testRules = `name: integration-rules
version: "1.0"

rulesets:
  - name: content:item
    content: item
    context:
      - name: tier
        expression: data.get('rarity', 'common')
    rules:
      - name: drop-legacy
        actions:
          delete: legacy

      - name: stamp-tier
        actions:
          set:
            meta.tier: "{tier}"

      - name: assign-model
        actions:
          sequence:
            model_id:
              id: model
              start: 9000
              step: 10
`

const testItems = `items:
  iron_sword:
    damage: 7
    legacy: true
    rarity: rare
  oak_shield:
    name: Oak Shield
`

// TestVersionCommand checks the binary starts at all.
func TestVersionCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildGanymedeBinary(t)

	output, err := exec.Command(binaryPath, "version").CombinedOutput()
	if err != nil {
		t.Fatalf("version failed: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("Ganymede")) {
		t.Errorf("expected 'Ganymede' in version output, got: %s", output)
	}
}

// TestConvertPipeline tests the validate-then-convert workflow on a
// single file.
func TestConvertPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	rulesFile := filepath.Join(tmpDir, "rules.yml")
	inputFile := filepath.Join(tmpDir, "items.yml")
	outputFile := filepath.Join(tmpDir, "out", "items.yml")
	writeTestFile(t, rulesFile, testRules)
	writeTestFile(t, inputFile, testItems)

	binaryPath := buildGanymedeBinary(t)

	// Step 1: Validate rules
	t.Log("Step 1: Validating rules...")
	validateCmd := exec.Command(binaryPath, "validate", "--file", rulesFile)
	output, err := validateCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("validate failed: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("valid")) {
		t.Errorf("expected 'valid' in validate output, got: %s", output)
	}

	// Step 2: Validate with JSON output
	t.Log("Step 2: Validating with JSON output...")
	validateJSONCmd := exec.Command(binaryPath, "validate", "--file", rulesFile, "--format", "json")
	jsonOutput, err := validateJSONCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("validate with JSON output failed: %v\nOutput: %s", err, jsonOutput)
	}

	var results []map[string]interface{}
	if err := json.Unmarshal(jsonOutput, &results); err != nil {
		t.Fatalf("validate --format json produced unparseable output: %v\n%s", err, jsonOutput)
	}
	if len(results) != 1 || results[0]["valid"] != true {
		t.Fatalf("unexpected validation results: %+v", results)
	}

	// Step 3: Convert
	t.Log("Step 3: Converting...")
	convertCmd := exec.Command(binaryPath, "convert",
		"--rules", rulesFile,
		"--input", inputFile,
		"--output", outputFile,
		"--no-progress")
	output, err = convertCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("convert failed: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("Converted 1 of 1")) {
		t.Errorf("expected conversion summary, got: %s", output)
	}

	converted := readTestFile(t, outputFile)
	if strings.Contains(converted, "legacy") {
		t.Errorf("converted output still contains deleted key:\n%s", converted)
	}
	if !strings.Contains(converted, "model_id: 9000") {
		t.Errorf("converted output missing first sequence value:\n%s", converted)
	}
	if !strings.Contains(converted, "model_id: 9010") {
		t.Errorf("converted output missing second sequence value:\n%s", converted)
	}
	if !strings.Contains(converted, "tier: rare") {
		t.Errorf("converted output missing context value:\n%s", converted)
	}
}

// TestBatchConvertMirrorsTree tests directory conversion into a
// mirrored output tree.
func TestBatchConvertMirrorsTree(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	rulesFile := filepath.Join(tmpDir, "rules.yml")
	writeTestFile(t, rulesFile, testRules)

	inputDir := filepath.Join(tmpDir, "data")
	writeTestFile(t, filepath.Join(inputDir, "a.yml"), "items:\n  apple:\n    rarity: common\n")
	writeTestFile(t, filepath.Join(inputDir, "weapons", "b.yml"), "items:\n  blade:\n    rarity: epic\n")

	outputDir := filepath.Join(tmpDir, "converted")

	binaryPath := buildGanymedeBinary(t)

	convertCmd := exec.Command(binaryPath, "convert",
		"--rules", rulesFile,
		"--input", inputDir,
		"--output", outputDir,
		"--no-progress")
	output, err := convertCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("batch convert failed: %v\nOutput: %s", err, output)
	}

	// Outputs mirror the input tree
	first := readTestFile(t, filepath.Join(outputDir, "a.yml"))
	second := readTestFile(t, filepath.Join(outputDir, "weapons", "b.yml"))

	// The counter spans files in lexicographic order
	if !strings.Contains(first, "model_id: 9000") {
		t.Errorf("first batch file should start the sequence:\n%s", first)
	}
	if !strings.Contains(second, "model_id: 9010") {
		t.Errorf("second batch file should continue the sequence:\n%s", second)
	}
}

// TestTraceQueryPipeline tests trace recording and querying.
func TestTraceQueryPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "trace.db")
	rulesFile := filepath.Join(tmpDir, "rules.yml")
	inputFile := filepath.Join(tmpDir, "items.yml")
	writeTestFile(t, rulesFile, testRules)
	writeTestFile(t, inputFile, testItems)

	configFile := filepath.Join(tmpDir, "config.yaml")
	writeTestFile(t, configFile, fmt.Sprintf(`conversion:
  rules_file: %q
  input_path: %q
  output_path: %q

trace:
  enabled: true
  sqlite:
    path: %q

telemetry:
  logging:
    level: "warn"
    format: "json"
`, rulesFile, inputFile, filepath.Join(tmpDir, "out.yml"), dbPath))

	binaryPath := buildGanymedeBinary(t)

	// Convert with tracing enabled
	t.Log("Converting with tracing enabled...")
	convertCmd := exec.Command(binaryPath, "convert", "--config", configFile, "--no-progress")
	output, err := convertCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("convert failed: %v\nOutput: %s", err, output)
	}

	// Query runs
	t.Log("Querying recorded runs...")
	runsCmd := exec.Command(binaryPath, "trace", "runs", "--db", dbPath, "--format", "json")
	runsOutput, err := runsCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("trace runs failed: %v\nOutput: %s", err, runsOutput)
	}

	var runsResult map[string]interface{}
	if err := json.Unmarshal(runsOutput, &runsResult); err != nil {
		t.Fatalf("trace runs --format json produced unparseable output: %v\n%s", err, runsOutput)
	}
	runs, ok := runsResult["runs"].([]interface{})
	if !ok || len(runs) == 0 {
		t.Fatalf("expected at least one recorded run: %+v", runsResult)
	}
	runID, _ := runs[0].(map[string]interface{})["id"].(string)
	if runID == "" {
		t.Fatalf("run record missing id: %+v", runs[0])
	}

	// List events for the run
	t.Log("Listing trace events...")
	listCmd := exec.Command(binaryPath, "trace", "list",
		"--db", dbPath,
		"--run", runID,
		"--kind", "action_outcome")
	listOutput, err := listCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("trace list failed: %v\nOutput: %s", err, listOutput)
	}
	if !bytes.Contains(listOutput, []byte("action_outcome")) {
		t.Errorf("expected action_outcome events, got: %s", listOutput)
	}

	// Export as CSV
	t.Log("Exporting trace events as CSV...")
	csvPath := filepath.Join(tmpDir, "events.csv")
	exportCmd := exec.Command(binaryPath, "trace", "export",
		"--db", dbPath,
		"--run", runID,
		"--format", "csv",
		"--output", csvPath)
	exportOutput, err := exportCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("trace export failed: %v\nOutput: %s", err, exportOutput)
	}
	csv := readTestFile(t, csvPath)
	if !strings.Contains(csv, "run_id") {
		t.Errorf("expected CSV header, got:\n%s", csv)
	}
}

// TestWatchReconverts tests that watch mode reconverts on input change
// and shuts down cleanly on SIGINT.
func TestWatchReconverts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	rulesFile := filepath.Join(tmpDir, "rules.yml")
	inputFile := filepath.Join(tmpDir, "items.yml")
	outputFile := filepath.Join(tmpDir, "out", "items.yml")
	writeTestFile(t, rulesFile, testRules)
	writeTestFile(t, inputFile, "items:\n  iron_sword:\n    rarity: rare\n")

	binaryPath := buildGanymedeBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "convert",
		"--rules", rulesFile,
		"--input", inputFile,
		"--output", outputFile,
		"--watch")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start watch: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	// Initial conversion
	if !waitForContent(outputFile, "tier: rare", 10*time.Second) {
		t.Fatalf("initial conversion did not appear\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	// Change the input and wait for the reconversion
	writeTestFile(t, inputFile, "items:\n  iron_sword:\n    rarity: epic\n")
	if !waitForContent(outputFile, "tier: epic", 10*time.Second) {
		t.Fatalf("watch did not reconvert\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	// Graceful shutdown
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Errorf("failed to send SIGINT: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Logf("stdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
			t.Errorf("unexpected shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("watch did not shut down within 5 seconds")
	}
}

// TestConvertFailureExitCode tests that failed documents produce a
// non-zero exit.
func TestConvertFailureExitCode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	rulesFile := filepath.Join(tmpDir, "rules.yml")
	inputFile := filepath.Join(tmpDir, "broken.yml")
	writeTestFile(t, rulesFile, testRules)
	writeTestFile(t, inputFile, "items: [\n")

	binaryPath := buildGanymedeBinary(t)

	convertCmd := exec.Command(binaryPath, "convert",
		"--rules", rulesFile,
		"--input", inputFile,
		"--no-progress")
	output, err := convertCmd.CombinedOutput()
	if err == nil {
		t.Errorf("convert of unparseable input should exit non-zero, output: %s", output)
	}
}

var buildOnce sync.Once
var buildResult struct {
	path string
	err  error
}

// buildGanymedeBinary compiles cmd/ganymede at most once per `go test`
// invocation, reusing ../bin/ganymede when a previous build left one.
func buildGanymedeBinary(t *testing.T) string {
	t.Helper()

	buildOnce.Do(func() {
		buildResult.path = "../bin/ganymede"
		if _, err := os.Stat(buildResult.path); err == nil {
			return
		}
		t.Log("building ganymede...")
		out, err := exec.Command("go", "build", "-o", buildResult.path, "../cmd/ganymede").CombinedOutput()
		if err != nil {
			buildResult.err = fmt.Errorf("go build: %v\n%s", err, out)
		}
	})
	if buildResult.err != nil {
		t.Fatal(buildResult.err)
	}
	return buildResult.path
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// waitForContent polls a file until it contains the substring.
func waitForContent(path, substr string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && strings.Contains(string(data), substr) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
