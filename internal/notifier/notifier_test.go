package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	ps "github.com/mitchellh/go-ps"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int           { return m.pid }
func (m *mockProcess) PPid() int          { return 0 }
func (m *mockProcess) Executable() string { return m.executable }

func withConfigDir(t *testing.T, dir string) {
	t.Helper()
	old := userConfigDirFunc
	t.Cleanup(func() { userConfigDirFunc = old })
	userConfigDirFunc = func() (string, error) { return dir, nil }
}

func withProcess(t *testing.T, fn func(pid int) (ps.Process, error)) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = fn
}

func TestGetTrayAppConfigDir(t *testing.T) {
	tempDir := t.TempDir()
	withConfigDir(t, tempDir)

	expectedDefault := filepath.Join(tempDir, constants.TrayAppIdentifier)
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != expectedDefault {
		t.Errorf("expected %s, got %s", expectedDefault, dir)
	}

	if err := os.MkdirAll(expectedDefault, 0755); err != nil {
		t.Fatal(err)
	}
	customDir := "/custom/routinely/dir"
	settingsJSON := fmt.Sprintf(`{"settings": {"lockfile_dir": "%s"}}`, customDir)
	if err := os.WriteFile(filepath.Join(expectedDefault, "settings.json"), []byte(settingsJSON), 0644); err != nil {
		t.Fatal(err)
	}

	dir, err = GetTrayAppConfigDir()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if dir != customDir {
		t.Errorf("expected %s, got %s", customDir, dir)
	}
}

func TestFindAndValidateTrayProcess(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), constants.NotifierLockfileName)

	if _, _, err := findAndValidateTrayProcess(lockfilePath); !errors.Is(err, ErrTrayNotRunning) {
		t.Errorf("missing lockfile: err = %v, want ErrTrayNotRunning", err)
	}

	tray := func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: constants.TrayAppExecutable}, nil
	}

	tests := []struct {
		name    string
		content string
		process func(pid int) (ps.Process, error)
		wantErr string
	}{
		{"two part format", "8080|12345", tray, "malformed"},
		{"garbage", "invalid", tray, "malformed"},
		{"empty secret", "8080|12345|", tray, "secret"},
		{"empty port", "|12345|s3cret", tray, "port"},
		{"port out of range", "99999|12345|s3cret", tray, "range"},
		{"bad pid", "8080|abc|s3cret", tray, "process ID"},
		{"process gone", "8080|12345|s3cret", func(int) (ps.Process, error) { return nil, nil }, "not running"},
		{"wrong executable", "8080|12345|s3cret", func(pid int) (ps.Process, error) {
			return &mockProcess{pid: pid, executable: "other-app"}, nil
		}, "is not"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProcess(t, tt.process)
			if err := os.WriteFile(lockfilePath, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, _, err := findAndValidateTrayProcess(lockfilePath)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("findAndValidateTrayProcess() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	withProcess(t, tray)
	if err := os.WriteFile(lockfilePath, []byte("8080|12345|testsecret123\n"), 0644); err != nil {
		t.Fatal(err)
	}
	port, secret, err := findAndValidateTrayProcess(lockfilePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != "8080" || secret != "testsecret123" {
		t.Errorf("got port %s secret %s, want 8080 testsecret123", port, secret)
	}
}

type trayServer struct {
	mu    sync.Mutex
	texts []string
}

func (s *trayServer) handler(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get(secretHeader) != secret {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Unauthorized"))
			return
		}
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload.Text == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.mu.Lock()
		s.texts = append(s.texts, payload.Text)
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func serverPort(url string) string {
	parts := strings.Split(url, ":")
	return parts[len(parts)-1]
}

func TestSend(t *testing.T) {
	tray := &trayServer{}
	server := httptest.NewServer(tray.handler("test-secret"))
	defer server.Close()
	port := serverPort(server.URL)
	n := New()
	ctx := context.Background()

	if err := n.send(ctx, port, "test-secret", WebhookPayload{Text: "hello"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := n.send(ctx, port, "wrong-secret", WebhookPayload{Text: "hello"}); err == nil {
		t.Error("expected error for wrong secret")
	}
	if err := n.send(ctx, port, "test-secret", WebhookPayload{Text: "fail"}); err == nil {
		t.Error("expected error for server failure")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := n.send(cancelled, port, "test-secret", WebhookPayload{Text: "hello"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestAchievementsUnlocked(t *testing.T) {
	tray := &trayServer{}
	server := httptest.NewServer(tray.handler("s3cret"))
	defer server.Close()

	configDir := t.TempDir()
	withConfigDir(t, configDir)
	withProcess(t, func(pid int) (ps.Process, error) {
		return &mockProcess{pid: pid, executable: constants.TrayAppExecutable}, nil
	})

	lockDir := filepath.Join(configDir, constants.TrayAppIdentifier)
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		t.Fatal(err)
	}
	lock := serverPort(server.URL) + "|4242|s3cret"
	if err := os.WriteFile(filepath.Join(lockDir, constants.NotifierLockfileName), []byte(lock), 0644); err != nil {
		t.Fatal(err)
	}

	New().AchievementsUnlocked(context.Background(), []models.Achievement{
		{ID: "first_routine", Title: "First Steps", Icon: "*"},
		{ID: "streak_7", Title: "Week Warrior", Icon: "*"},
	})

	if len(tray.texts) != 2 {
		t.Fatalf("tray received %d notifications, want 2", len(tray.texts))
	}
	if !strings.Contains(tray.texts[0], "First Steps") {
		t.Errorf("first notification = %q", tray.texts[0])
	}
}

func TestAchievementsUnlockedWithoutTrayIsSilent(t *testing.T) {
	withConfigDir(t, t.TempDir())
	// no lockfile: must return without panicking or blocking
	New().AchievementsUnlocked(context.Background(), []models.Achievement{{ID: "x", Title: "X"}})
}
