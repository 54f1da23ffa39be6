package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xvierd/focus-cli/internal/config"
)

// cliEnv runs rootCmd against a throwaway config file and database.
type cliEnv struct {
	t      *testing.T
	config string
	db     string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfgPath := filepath.Join(dir, "config.toml")
	for key, value := range map[string]string{
		"notifications.enabled": "false",
		"storage.data_dir":      dir,
		"user.id":               "cli-user",
	} {
		if err := config.SetValue(cfgPath, key, value); err != nil {
			t.Fatalf("SetValue(%s): %v", key, err)
		}
	}
	return &cliEnv{t: t, config: cfgPath, db: filepath.Join(dir, "focus.db")}
}

func (e *cliEnv) run(args ...string) string {
	e.t.Helper()
	resetFlags()
	out, _, err := executeCmd(rootCmd, append([]string{"--config", e.config, "--db", e.db}, args...)...)
	if err != nil {
		e.t.Fatalf("focus %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func (e *cliEnv) fail(args ...string) error {
	e.t.Helper()
	resetFlags()
	_, _, err := executeCmd(rootCmd, append([]string{"--config", e.config, "--db", e.db}, args...)...)
	if err == nil {
		e.t.Fatalf("focus %s: expected an error", strings.Join(args, " "))
	}
	return err
}

func (e *cliEnv) status() map[string]interface{} {
	e.t.Helper()
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(e.run("status", "--json")), &data); err != nil {
		e.t.Fatalf("status --json is not JSON: %v", err)
	}
	return data
}

func TestCLI_TaskWorkflow(t *testing.T) {
	env := newCLIEnv(t)

	out := env.run("tasks", "add", "Write", "docs", "-m", "10")
	if !strings.Contains(out, "Task added: Write docs (10m)") {
		t.Errorf("add output = %q", out)
	}
	env.run("tasks", "add", "Review PR", "--minutes", "5")

	out = env.run("tasks")
	if !strings.Contains(out, " 1. Write docs") || !strings.Contains(out, " 2. Review PR") {
		t.Errorf("queue output = %q", out)
	}

	out = env.run("tasks", "top", "review")
	if !strings.Contains(out, "Task Moved") {
		t.Errorf("top output = %q", out)
	}
	if got := env.status()["current_task"]; got != "Review PR" {
		t.Errorf("current_task = %v, want Review PR", got)
	}

	out = env.run("complete")
	if !strings.Contains(out, "Task Completed!") {
		t.Errorf("complete output = %q", out)
	}
	if got := env.status()["current_task"]; got != "Write docs" {
		t.Errorf("current_task after complete = %v, want Write docs", got)
	}

	env.run("tasks", "copy", "1")
	out = env.run("tasks", "search", "docs")
	if strings.Count(out, "Write docs") != 2 {
		t.Errorf("search should find the task and its copy, got %q", out)
	}

	env.run("tasks", "delete", "Write docs (Copy)")
	queue := env.status()["queue"].([]interface{})
	if len(queue) != 1 {
		t.Errorf("queue length = %d, want 1", len(queue))
	}
}

func TestCLI_UnknownTask(t *testing.T) {
	env := newCLIEnv(t)
	env.run("tasks", "add", "Only task")

	err := env.fail("tasks", "lock", "nothing like it")
	if !strings.Contains(err.Error(), "no task matches") {
		t.Errorf("error = %v", err)
	}
}

func TestCLI_Lists(t *testing.T) {
	env := newCLIEnv(t)

	out := env.run("lists")
	if !strings.Contains(out, "My First List") {
		t.Errorf("a default list should be created, got %q", out)
	}
}

func TestCLI_Config(t *testing.T) {
	env := newCLIEnv(t)

	env.run("config", "set", "timer.default_duration", "45m")
	if out := env.run("config", "get", "timer.default_duration"); strings.TrimSpace(out) != "45m0s" {
		t.Errorf("config get = %q, want 45m0s", out)
	}

	out := env.run("tasks", "add", "Long task")
	if !strings.Contains(out, "(45m)") {
		t.Errorf("new tasks should use the configured default, got %q", out)
	}

	env.fail("config", "set", "timer.default_duration", "0s")
	env.fail("config", "get", "no.such.key")
}
