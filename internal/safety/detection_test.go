package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDestructiveBashDetectsRm(t *testing.T) {
	assert.True(t, IsDestructiveBash("rm -rf build/"))
}

func TestIsDestructiveBashAllowsReadonly(t *testing.T) {
	assert.False(t, IsDestructiveBash("git status"))
	assert.False(t, IsDestructiveBash("cat README.md"))
}

func TestIsDestructiveBashEmptyIsFalse(t *testing.T) {
	assert.False(t, IsDestructiveBash(""))
}

func TestIsSafeTempPathMatchesTmp(t *testing.T) {
	assert.True(t, IsSafeTempPath("/tmp/scratch.txt"))
	assert.False(t, IsSafeTempPath("/home/user/project/main.go"))
}

func TestIsCriticalFileDetectsSSHKeys(t *testing.T) {
	assert.True(t, IsCriticalFile("/home/user/.ssh/id_rsa"))
	assert.False(t, IsCriticalFile("/home/user/project/readme.md"))
}
