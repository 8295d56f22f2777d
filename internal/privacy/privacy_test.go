package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePathReturnsBasename(t *testing.T) {
	assert.Equal(t, "main.go", SanitizePath("/home/user/project/main.go"))
}

func TestSanitizePathRedactsSensitive(t *testing.T) {
	assert.Equal(t, "[private]", SanitizePath("/home/user/.ssh/id_rsa"))
}

func TestSanitizeCommandKeepsVerbAndSubcommand(t *testing.T) {
	assert.Equal(t, "git commit", SanitizeCommand("git commit -m 'secret message'"))
}

func TestSanitizeCommandSingleWord(t *testing.T) {
	assert.Equal(t, "ls", SanitizeCommand("ls -la /home/user"))
}
