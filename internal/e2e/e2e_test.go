package e2e

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	cli "github.com/restkit/spec2client/internal/cli"
)

const searchSpec = `{"search": {"stability":"stable","methods":["GET","POST"],"url":{"paths":["/_search","/{index}/_search"],"parts":{"index":{"type":"list"}},"params":{"expand_wildcards":{"type":"enum","options":["open","closed","none","all"]}}},"body":{"description":"The search definition"}}}`

const indicesCreateSpec = `{"indices.create": {"stability":"stable","methods":["PUT"],"url":{"paths":[{"template":"/{index}","params":["index"]}],"parts":{"index":{"type":"string"}},"params":{}}}}`

const indicesDeleteSpec = `{"indices.delete": {"stability":"stable","methods":["DELETE"],"url":{"paths":[{"template":"/{index}","params":["index"]}],"parts":{"index":{"type":"list"}},"params":{}}}}`

const commonSpec = `{"description":"","documentation":"","params":{"pretty":{"type":"boolean"}}}`

func writeSpecDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"search.json":         searchSpec,
		"indices.create.json": indicesCreateSpec,
		"indices.delete.json": indicesDeleteSpec,
		"_common.json":        commonSpec,
		"_unused.json":        `{"ignored": true}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func runCLI(t *testing.T, args ...string) {
	t.Helper()
	root := cli.NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("cli execute %v: %v", args, err)
	}
}

func digestDir(t *testing.T, dir string) (files []string, sum string) {
	t.Helper()
	var list []string
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		list = append(list, rel)
		// hash path + contents to be robust
		_, _ = h.Write([]byte(rel))
		b, rerr := os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		_, _ = h.Write(b)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return list, hex.EncodeToString(h.Sum(nil))
}

func TestGenerate_EndToEnd(t *testing.T) {
	specDir := writeSpecDir(t)
	outDir := filepath.Join(t.TempDir(), "client")

	runCLI(t, "generate", "--input", specDir, "--out", outDir, "--branch", "7.x")

	files, _ := digestDir(t, outDir)
	want := []string{"client.go", "enums.go", "indices.go", "root.go"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("generated files = %v, want %v", files, want)
	}
}

func TestGenerate_DeterministicAcrossRuns(t *testing.T) {
	specDir := writeSpecDir(t)
	first := filepath.Join(t.TempDir(), "a")
	second := filepath.Join(t.TempDir(), "b")

	runCLI(t, "generate", "--input", specDir, "--out", first, "--branch", "7.x")
	runCLI(t, "generate", "--input", specDir, "--out", second, "--branch", "7.x")

	filesA, sumA := digestDir(t, first)
	filesB, sumB := digestDir(t, second)
	if !reflect.DeepEqual(filesA, filesB) {
		t.Fatalf("file lists differ: %v vs %v", filesA, filesB)
	}
	if sumA != sumB {
		t.Fatalf("output trees differ between runs")
	}
}

func TestExport_DeterministicAcrossRuns(t *testing.T) {
	specDir := writeSpecDir(t)
	first := filepath.Join(t.TempDir(), "openapi.json")
	second := filepath.Join(t.TempDir(), "openapi.json")

	runCLI(t, "export", "--input", specDir, "--out", first)
	runCLI(t, "export", "--input", specDir, "--out", second)

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read first export: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read second export: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("exports differ between runs")
	}
}
