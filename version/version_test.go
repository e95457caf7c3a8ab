package version_test

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da/version"
)

func TestFull(t *testing.T) {
	t.Parallel()

	assert.Equal(t, version.Name(), "mpegh3da")
	assert.Assert(t, version.Commit() != "")
	assert.Assert(t, version.Date() != "")

	full := version.Full()
	assert.Assert(t, strings.HasPrefix(full, version.Version()+" ("), full)
	assert.Assert(t, strings.Contains(full, version.Commit()), full)
}
