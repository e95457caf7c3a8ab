// Package testutils drives the built mpegh3da binary from integration tests.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/containerd/nerdctl/mod/tigron/test"

	"github.com/farcloser/agar/pkg/agar"
)

func projectRoot() string {
	_, thisFile, _, _ := runtime.Caller(0) //nolint:dogsled // runtime.Caller returns 4 values, only file is needed

	return filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
}

// BinaryPath returns the absolute path to the mpegh3da binary.
func BinaryPath() string {
	return filepath.Join(projectRoot(), "bin", "mpegh3da")
}

// Setup creates a test case configured to run the mpegh3da binary. The case is skipped when
// the binary has not been built.
func Setup() *test.Case {
	testCase := agar.Setup(BinaryPath())
	testCase.Require = &test.Requirement{
		Check: func(_ test.Data, _ test.Helpers) (bool, string) {
			if _, err := os.Stat(BinaryPath()); err != nil {
				return false, "mpegh3da binary not built: " + err.Error()
			}

			return true, ""
		},
	}

	return testCase
}
