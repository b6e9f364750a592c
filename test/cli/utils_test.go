package cli

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
)

var (
	buildOnce   sync.Once
	builtBinary string
	buildErr    error
)

// result is the outcome of one invocation of the binary, with colour codes stripped from both streams.
type result struct {
	args   []string
	stdout string
	stderr string
	rc     int
}

func (r result) log(t testing.TB) {
	t.Log("STDOUT:\n", r.stdout)
	t.Log("STDERR:\n", r.stderr)
	t.Log("COMMAND:", strings.Join(r.args, " "))
}

func runCWELookup(t testing.TB, env map[string]string, args ...string) result {
	cancel := make(chan bool, 1)
	defer func() {
		cancel <- true
	}()

	cmd := getCWELookupCommand(t, args...)
	if env == nil {
		env = make(map[string]string)
	}

	// never read a config from the developer's home directory
	env["HOME"] = t.TempDir()
	env["XDG_CONFIG_HOME"] = t.TempDir()

	timeout := func() {
		select {
		case <-cancel:
			return
		case <-time.After(60 * time.Second):
		}

		if cmd != nil && cmd.Process != nil {
			// get a stack trace printed
			err := cmd.Process.Signal(syscall.SIGABRT)
			if err != nil {
				t.Errorf("error aborting: %+v", err)
			}
		}
	}

	go timeout()

	stdout, stderr, _ := runCommand(cmd, env)
	return result{
		args:   cmd.Args,
		stdout: stripansi.Strip(stdout),
		stderr: stripansi.Strip(stderr),
		rc:     cmd.ProcessState.ExitCode(),
	}
}

func runCommand(cmd *exec.Cmd, env map[string]string) (string, string, error) {
	if env != nil {
		cmd.Env = append(os.Environ(), envMapToSlice(env)...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// ignore errors since this may be what the test expects
	err := cmd.Run()

	return stdout.String(), stderr.String(), err
}

func envMapToSlice(env map[string]string) (envList []string) {
	for key, val := range env {
		if key == "" {
			continue
		}
		envList = append(envList, fmt.Sprintf("%s=%s", key, val))
	}
	return
}

func getCWELookupCommand(t testing.TB, args ...string) *exec.Cmd {
	return exec.Command(getCWELookupBinaryLocation(t), args...)
}

func getCWELookupBinaryLocation(t testing.TB) string {
	if os.Getenv("CWE_LOOKUP_BINARY_LOCATION") != "" {
		// CWE_LOOKUP_BINARY_LOCATION is the absolute path to a prebuilt binary
		return os.Getenv("CWE_LOOKUP_BINARY_LOCATION")
	}

	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "cwe-lookup-cli-test-*")
		if err != nil {
			buildErr = err
			return
		}
		builtBinary = filepath.Join(dir, "cwe-lookup")

		build := exec.Command("go", "build", "-o", builtBinary, "./cmd/cwe-lookup")
		build.Dir = repoRoot(t)
		if out, err := build.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("unable to build binary: %w\n%s", err, out)
		}
	})
	if buildErr != nil {
		t.Fatal(buildErr)
	}
	return builtBinary
}

func repoRoot(t testing.TB) string {
	t.Helper()
	root, err := exec.Command("go", "list", "-m", "-f", "{{.Dir}}").Output()
	if err != nil {
		t.Fatalf("unable to find repo root dir: %+v", err)
	}
	absRepoRoot, err := filepath.Abs(strings.TrimSpace(string(root)))
	if err != nil {
		t.Fatal("unable to get abs path to repo root:", err)
	}
	return absRepoRoot
}

func writeSecret(t testing.TB, name, value string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(value+"\n"), 0600); err != nil {
		t.Fatalf("unable to write %s: %+v", name, err)
	}
	return path
}
