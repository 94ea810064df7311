package env_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opst/gemdclient/cmd/gemd/env"
)

func lookupIn(m map[string]string) env.Option {
	return env.WithLookup(func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	})
}

func TestLoad(t *testing.T) {
	type when struct {
		path    string
		environ map[string]string
	}

	for name, testcase := range map[string]struct {
		when when
		then env.Env
	}{
		"it reads the dotenv file": {
			when: when{path: "./testdata/example.env", environ: map[string]string{}},
			then: env.Env{
				Project:  "5a1b4c9e-0000-4000-8000-000000000001",
				Dataset:  "5a1b4c9e-0000-4000-8000-000000000002",
				LogLevel: "info",
			},
		},
		"environment variables win over the file": {
			when: when{
				path: "./testdata/example.env",
				environ: map[string]string{
					env.KeyDataset:      "other",
					env.KeyRefreshToken: "token",
				},
			},
			then: env.Env{
				Project:      "5a1b4c9e-0000-4000-8000-000000000001",
				Dataset:      "other",
				RefreshToken: "token",
				LogLevel:     "info",
			},
		},
		"missing file is empty": {
			when: when{path: "./testdata/no-such.env", environ: map[string]string{}},
			then: env.Env{},
		},
		"without file, only the environment is read": {
			when: when{path: "", environ: map[string]string{env.KeyProject: "p"}},
			then: env.Env{Project: "p"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			actual, err := env.Load(testcase.when.path, lookupIn(testcase.when.environ))
			require.NoError(t, err)
			assert.Equal(t, testcase.then, *actual)
		})
	}
}
