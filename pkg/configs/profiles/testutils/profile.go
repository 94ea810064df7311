package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/opst/gemdclient/pkg/configs/profiles"
)

// TempProfile creates a profile store file holding one profile, for test.
//
// The file is removed after the test automatically.
//
// args:
//   - *testing.T
//   - name: name of the profile
//   - profile: profile to be stored
//
// returns:
//   - string: filepath to the profile store.
func TempProfile(t *testing.T, name string, profile *profiles.Profile) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create profile store: %v", err)
	}
	defer f.Close()

	if err := yaml.NewEncoder(f).Encode(profiles.ProfileStore{name: profile}); err != nil {
		t.Fatalf("failed to write profile store: %v", err)
	}
	return path
}
