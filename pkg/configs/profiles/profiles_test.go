package profiles_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/gemdclient/pkg/configs/profiles"
	"github.com/opst/gemdclient/pkg/configs/profiles/testutils"
)

// caCert is a self-signed certificate for tests.
const caCert = `-----BEGIN CERTIFICATE-----
MIIBhDCCASugAwIBAgIUNdEbFdUN9NkCvYAizc3iTONgQW4wCgYIKoZIzj0EAwIw
FzEVMBMGA1UEAwwMZ2VtZCB0ZXN0IGNhMCAXDTI2MTAxNjIzNDcyNloYDzIxMjYw
OTIyMjM0NzI2WjAXMRUwEwYDVQQDDAxnZW1kIHRlc3QgY2EwWTATBgcqhkjOPQIB
BggqhkjOPQMBBwNCAARrw4d9ePSV1kTpwmghDnN6xaxeGOEwS2+Nrd+ZDstMhv2F
fml6y8FHL3+eoILb/VvzFAmvur3yYojD8guUZ2hHo1MwUTAdBgNVHQ4EFgQUhblr
j6SD6q+nFkupsSUYo78BOCUwHwYDVR0jBBgwFoAUhblrj6SD6q+nFkupsSUYo78B
OCUwDwYDVR0TAQH/BAUwAwEB/zAKBggqhkjOPQQDAgNHADBEAiARCt+SGlDxOTD/
t/gJPj5MuYFfdUwO0ryyB+/RiHA75wIgXfJI9gkwClMAcn6xlAcWMRBezpyvBnDo
dPunyramvOo=
-----END CERTIFICATE-----
`

func TestUnmarshal(t *testing.T) {
	store, err := profiles.Unmarshal([]byte(`
default:
    apiRoot: "https://api.example.com"
    cert:
        ca: BASE64_ENCODED_CERT
    refreshToken: token-xyz
    project: 6ba7b810-9dad-11d1-80b4-00c04fd430c8
    retry:
        attempts: 3
        interval: 500ms
    logLevel: debug
`))
	require.NoError(t, err)

	prof, ok := store["default"]
	require.True(t, ok, "profile is missing")
	assert.Equal(t, &profiles.Profile{
		ApiRoot:      "https://api.example.com",
		Cert:         profiles.Cert{CA: "BASE64_ENCODED_CERT"},
		RefreshToken: "token-xyz",
		Project:      "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Retry:        profiles.Retry{Attempts: 3, Interval: 500 * time.Millisecond},
		LogLevel:     "debug",
	}, prof)
}

func TestVerify(t *testing.T) {
	for name, testcase := range map[string]struct {
		prof    *profiles.Profile
		toBeErr bool
	}{
		"minimal profile": {
			prof: &profiles.Profile{ApiRoot: "https://api.example.com"},
		},
		"with CA": {
			prof: &profiles.Profile{
				ApiRoot: "https://api.example.com",
				Cert:    profiles.Cert{CA: base64.StdEncoding.EncodeToString([]byte(caCert))},
			},
		},
		"api root is not url": {
			prof:    &profiles.Profile{ApiRoot: "not url"},
			toBeErr: true,
		},
		"api root is missing": {
			prof:    &profiles.Profile{},
			toBeErr: true,
		},
		"CA is not PEM": {
			prof: &profiles.Profile{
				ApiRoot: "https://api.example.com",
				Cert:    profiles.Cert{CA: base64.StdEncoding.EncodeToString([]byte("not a pem"))},
			},
			toBeErr: true,
		},
		"project is not uuid": {
			prof:    &profiles.Profile{ApiRoot: "https://api.example.com", Project: "project-1"},
			toBeErr: true,
		},
		"too many retries": {
			prof:    &profiles.Profile{ApiRoot: "https://api.example.com", Retry: profiles.Retry{Attempts: 11}},
			toBeErr: true,
		},
		"unknown log level": {
			prof:    &profiles.Profile{ApiRoot: "https://api.example.com", LogLevel: "verbose"},
			toBeErr: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			err := testcase.prof.Verify()
			if testcase.toBeErr {
				assert.ErrorIs(t, err, profiles.ErrProfileInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadAndSave(t *testing.T) {
	t.Run("missing store", func(t *testing.T) {
		_, err := profiles.LoadProfileStore(filepath.Join(t.TempDir(), "nothing"))
		assert.ErrorIs(t, err, profiles.ErrProfileStoreNotFound)
	})

	t.Run("saved store can be loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "profile")
		store := profiles.ProfileStore{
			"a": {ApiRoot: "https://a.example.com", RefreshToken: "t-a"},
		}
		require.NoError(t, store.Save(path))

		store["b"] = &profiles.Profile{ApiRoot: "https://b.example.com"}
		require.NoError(t, store.Save(path))

		loaded, err := profiles.LoadProfileStore(path)
		require.NoError(t, err)
		assert.Equal(t, store, loaded)

		stat, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())

		_, err = os.Stat(path + ".backup")
		assert.True(t, os.IsNotExist(err), "backup should be removed after saving")
	})

	t.Run("TempProfile", func(t *testing.T) {
		path := testutils.TempProfile(t, "p", &profiles.Profile{ApiRoot: "https://p.example.com"})
		loaded, err := profiles.LoadProfileStore(path)
		require.NoError(t, err)
		assert.Equal(t, "https://p.example.com", loaded["p"].ApiRoot)
	})
}
