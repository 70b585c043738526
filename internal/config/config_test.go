package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/julianstephens/routinely/internal/constants"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), constants.DefaultSettingsFile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s != Default() {
		t.Errorf("Load() = %+v, want %+v", s, Default())
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Settings
		wantErr bool
	}{
		{
			name:    "partial file keeps defaults",
			content: "timezone: Asia/Tokyo\npet_name: Mochi\n",
			want: Settings{
				Timezone: "Asia/Tokyo", Notifications: true, AutoBackup: true,
				MaxBackups: constants.MaxBackups, PetName: "Mochi",
			},
		},
		{
			name:    "explicit opt-outs",
			content: "notifications: false\nauto_backup: false\nmax_backups: 3\nuser_name: Sam\n",
			want: Settings{
				Timezone: "Local", MaxBackups: 3, UserName: "Sam",
			},
		},
		{name: "malformed yaml", content: "timezone: [unclosed", wantErr: true},
		{name: "unknown timezone", content: "timezone: Mars/Olympus\n", wantErr: true},
		{name: "negative retention", content: "max_backups: -1\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeSettings(t, tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Load() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", constants.DefaultSettingsFile)
	in := Default()
	in.Timezone = "Europe/Madrid"
	in.PetType = "cat"

	if err := Save(path, in); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out != in {
		t.Errorf("Load() = %+v, want %+v", out, in)
	}

	if err := Save(path, Settings{Timezone: "nowhere"}); err == nil {
		t.Error("Save() accepted an invalid timezone")
	}
}

func TestClock(t *testing.T) {
	s := Default()
	s.Timezone = "Asia/Tokyo"
	clock, err := s.Clock()
	if err != nil {
		t.Fatalf("Clock() error = %v", err)
	}
	if got := clock().Location().String(); got != "Asia/Tokyo" {
		t.Errorf("Clock() location = %s, want Asia/Tokyo", got)
	}
}
