package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Write a config that routes log output to a file inside dir and return the
// path to the config and the log file.
func logToFile(t *testing.T, dir string) (string, string) {
	t.Helper()
	logfile := filepath.Join(dir, "rtbvh.log")
	cfgFile := filepath.Join(dir, "rtbvh.toml")
	payload := fmt.Sprintf("[logging]\nlevel = \"notice\"\nlogfile = %q\n", logfile)
	if err := os.WriteFile(cfgFile, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgFile, logfile
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgFile, logfile := logToFile(t, dir)

	err := NewApp().Run(append([]string{"rtbvh", "--config", cfgFile}, args...))

	data, readErr := os.ReadFile(logfile)
	if readErr != nil && !os.IsNotExist(readErr) {
		t.Fatal(readErr)
	}
	return string(data), err
}

func writeMesh(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "boxes.obj")
	payload := `
o first
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 5
v 1 0 5
v 1 1 5
v 0 1 5
f 1 2 3 4
f 5 6 7 8
o second
v 10 0 0
v 11 0 0
v 11 1 0
f -3 -2 -1
`
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildSampleEnvironment(t *testing.T) {
	out, err := runApp(t, "build", "--verify")
	if err != nil {
		t.Fatal(err)
	}

	for _, exp := range []string{"using the sample environment", "binned-sah", "environment", "all BVH trees passed validation"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected output to contain %q; got:\n%s", exp, out)
		}
	}
}

func TestBuildMeshFile(t *testing.T) {
	out, err := runApp(t, "build", "--strategy", "midpoint", "--min-leaf", "1", writeMesh(t))
	if err != nil {
		t.Fatal(err)
	}

	for _, exp := range []string{"midpoint", "first", "second"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected output to contain %q; got:\n%s", exp, out)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	if _, err := runApp(t, "build", "--strategy", "median"); err == nil || !strings.Contains(err.Error(), "unknown split strategy") {
		t.Fatalf("expected unknown strategy error; got %v", err)
	}

	if _, err := runApp(t, "build", "scene.fbx"); err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Fatalf("expected unsupported format error; got %v", err)
	}
}

func TestInspect(t *testing.T) {
	out, err := runApp(t, "inspect", "--depth", "1", writeMesh(t))
	if err != nil {
		t.Fatal(err)
	}

	for _, exp := range []string{`instance "first"`, `instance "second"`, "leaf", "node"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected output to contain %q; got:\n%s", exp, out)
		}
	}

	if _, err := runApp(t, "inspect"); err == nil {
		t.Fatal("expected inspect without arguments to fail")
	}
}

func TestCompare(t *testing.T) {
	out, err := runApp(t, "compare")
	if err != nil {
		t.Fatal(err)
	}

	for _, exp := range []string{"strategy comparison", "binned-sah", "interval-sah", "midpoint"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected output to contain %q; got:\n%s", exp, out)
		}
	}
}
