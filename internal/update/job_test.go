package update

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/homebridge/uix/internal/constants"
)

func TestAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pkg  string
		want bool
	}{
		{pkg: constants.PackageHomebridge, want: true},
		{pkg: constants.PackageHomebridgeConfigUIX, want: true},
		{pkg: constants.PackageHomebridgeHue, want: true},
		{pkg: "", want: false},
		{pkg: "homebridge@latest", want: false},
		{pkg: "left-pad", want: false},
		{pkg: "homebridge; rm -rf /", want: false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.pkg); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.pkg, got, tt.want)
		}
	}
}

func TestValidateRejectsUnknownPackage(t *testing.T) {
	t.Parallel()

	err := Job{Package: "left-pad"}.Validate()
	if !errors.Is(err, ErrPackageNotAllowed) {
		t.Fatalf("expected ErrPackageNotAllowed, got %v", err)
	}
	if !strings.Contains(err.Error(), "left-pad") {
		t.Fatalf("error should name the package: %v", err)
	}
}

func TestJobEnvironRoundTrip(t *testing.T) {
	t.Parallel()

	job := Job{
		ID:           "0d5c4ab9-4f9e-4a38-9b7e-5f1f3b0c8a11",
		Package:      constants.PackageHomebridge,
		StoragePath:  "/var/lib/homebridge",
		LockFilePath: "/var/lib/homebridge/" + constants.UpdateLockFileName,
		SelfPath:     "/var/lib/homebridge/.uix-offline-update-x.sh",
		LogPath:      "/var/lib/homebridge/" + constants.UpdateLogFileName,
	}

	env := map[string]string{}
	for _, kv := range job.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			t.Fatalf("malformed pair %q", kv)
		}
		env[key] = value
	}

	got := JobFromEnv(func(key string) string { return env[key] })
	if got != job {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, job)
	}
}

func TestJobFromEnvGeneratesID(t *testing.T) {
	t.Parallel()

	job := JobFromEnv(func(key string) string {
		if key == constants.EnvUpdatePackage {
			return constants.PackageHomebridge
		}
		return ""
	})
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Fatalf("expected generated uuid, got %q: %v", job.ID, err)
	}
	if job.Package != constants.PackageHomebridge {
		t.Fatalf("package = %q", job.Package)
	}
}

func TestInstallArgs(t *testing.T) {
	t.Parallel()

	got := strings.Join(installArgs("homebridge"), " ")
	if got != "install -g --unsafe-perm homebridge" {
		t.Fatalf("installArgs = %q", got)
	}
}
