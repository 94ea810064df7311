package buildtime_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opst/gemdclient/pkg/buildtime"
)

func TestVersionString(t *testing.T) {
	s := buildtime.VersionString()
	assert.True(t, strings.HasPrefix(s, buildtime.VERSION()+" (commit: "))
	assert.NotEmpty(t, buildtime.VERSION())
	assert.Contains(t, s, buildtime.GIT_REVISION())
}
