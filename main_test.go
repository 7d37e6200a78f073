package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func buildFittrackBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "fittrack")
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build fittrack binary: %v\n%s", err, string(out))
	}
	return binPath
}

type cli struct {
	t       *testing.T
	binPath string
	dbPath  string
	apiURL  string
	home    string
}

func (c *cli) run(args ...string) (string, string, int) {
	c.t.Helper()
	allArgs := append([]string{"--db", c.dbPath, "--api-url", c.apiURL}, args...)
	cmd := exec.Command(c.binPath, allArgs...)
	cmd.Dir = c.home
	cmd.Env = append(os.Environ(), "HOME="+c.home, "XDG_CONFIG_HOME="+c.home, "FITTRACK_TOKEN=")
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return stdout.String(), stderr.String(), 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		c.t.Fatalf("run fittrack command: %v", err)
	}
	return stdout.String(), stderr.String(), exitErr.ExitCode()
}

// fakeAPI is an in-memory stand-in for the fitness backend.
type fakeAPI struct {
	mu         sync.Mutex
	token      string
	nextID     int
	activities []map[string]any
	revoked    bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.revoked || r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case r.Method == http.MethodGet && path == "/activities":
		writeJSON(w, http.StatusOK, map[string]any{"data": f.activities})
	case r.Method == http.MethodPost && path == "/activities":
		var in map[string]any
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextID++
		in["id"] = f.nextID
		in["createdAt"] = "2026-02-20T07:30:00"
		f.activities = append([]map[string]any{in}, f.activities...)
		writeJSON(w, http.StatusCreated, in)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/recommendations/activity/"):
		id := strings.TrimPrefix(path, "/recommendations/activity/")
		for _, a := range f.activities {
			if strconv.Itoa(a["id"].(int)) == id {
				writeJSON(w, http.StatusOK, map[string]any{
					"activityId":     id,
					"activityType":   a["type"],
					"recommendation": "Overall: Solid effort\n\nPacing: Start slower: finish stronger",
					"safety":         []string{"Warm up first"},
				})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/activities/"):
		id := strings.TrimPrefix(path, "/activities/")
		kept := f.activities[:0]
		for _, a := range f.activities {
			if strconv.Itoa(a["id"].(int)) != id {
				kept = append(kept, a)
			}
		}
		f.activities = kept
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestWorkoutDayFlow(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1", "name": "Ada"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	api := &fakeAPI{token: token}
	srv := httptest.NewServer(api)
	defer srv.Close()

	home := t.TempDir()
	c := &cli{t: t, binPath: buildFittrackBinary(t), dbPath: filepath.Join(home, "fittrack.db"), apiURL: srv.URL + "/api", home: home}

	if _, stderr, exit := c.run("init"); exit != 0 {
		t.Fatalf("init failed: exit=%d stderr=%s", exit, stderr)
	}
	if _, stderr, exit := c.run("activity", "list"); exit == 0 || !strings.Contains(stderr, "not logged in") {
		t.Fatalf("expected list to require login: exit=%d stderr=%s", exit, stderr)
	}
	if stdout, stderr, exit := c.run("login", "--token", token); exit != 0 || !strings.Contains(stdout, "Logged in as Ada") {
		t.Fatalf("login failed: exit=%d stdout=%s stderr=%s", exit, stdout, stderr)
	}

	if _, stderr, exit := c.run("activity", "add", "--type", "running", "--duration", "1441", "--calories", "300"); exit == 0 || !strings.Contains(stderr, "Duration must be between 1 and 1440 minutes") {
		t.Fatalf("expected validation failure: exit=%d stderr=%s", exit, stderr)
	}
	if stdout, stderr, exit := c.run("activity", "add", "--type", "running", "--duration", "30", "--calories", "300"); exit != 0 || !strings.Contains(stdout, "Added activity 1") {
		t.Fatalf("add failed: exit=%d stdout=%s stderr=%s", exit, stdout, stderr)
	}
	if _, stderr, exit := c.run("activity", "add", "--type", "yoga", "--duration", "45", "--calories", "150"); exit != 0 {
		t.Fatalf("second add failed: exit=%d stderr=%s", exit, stderr)
	}

	stdout, stderr, exit := c.run("activity", "list")
	if exit != 0 {
		t.Fatalf("list failed: exit=%d stderr=%s", exit, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[1], "2\t") || !strings.HasPrefix(lines[2], "1\t") {
		t.Fatalf("expected newest first, got:\n%s", stdout)
	}

	stdout, stderr, exit = c.run("activity", "show", "1")
	if exit != 0 {
		t.Fatalf("show failed: exit=%d stderr=%s", exit, stderr)
	}
	for _, want := range []string{"Running (1)", "Overall:", "Solid effort", "Start slower: finish stronger", "Safety Guidelines"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in show output:\n%s", want, stdout)
		}
	}

	if _, stderr, exit := c.run("activity", "delete", "1", "--yes"); exit != 0 {
		t.Fatalf("delete failed: exit=%d stderr=%s", exit, stderr)
	}
	if _, _, exit := c.run("activity", "show", "1"); exit == 0 {
		t.Fatalf("expected deleted activity to be gone")
	}

	api.mu.Lock()
	api.revoked = true
	api.mu.Unlock()
	_, stderr, exit = c.run("activity", "list")
	if exit != 1 || !strings.Contains(stderr, `Session expired. Run "fittrack login" to sign in again.`) {
		t.Fatalf("expected session expiry: exit=%d stderr=%s", exit, stderr)
	}
	if _, _, exit := c.run("whoami"); exit == 0 {
		t.Fatalf("expected session to be cleared after 401")
	}
}

func TestMain(m *testing.M) {
	os.Exit(m.Run())
}
