package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/cli"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestRun_ValidateCommand_ValidConfig(t *testing.T) {
	path := writeFile(t, "org.toml", `
[org]
ceo = "ceo_test"
admins = ["admin_1"]
default_route = "sales"

[[org.manager]]
id = "mgr_1"
reports = ["user_alice"]

[[org.user]]
id = "user_alice"
github = "alice"
`)

	err := cli.Run(context.Background(), []string{"kottos", "validate", "--org-config", path}, "test")
	gt.NoError(t, err)
}

func TestRun_ValidateCommand_InvalidConfig(t *testing.T) {
	path := writeFile(t, "org.toml", `
[org]
ceo = "ceo_test"

[[org.manager]]
id = "mgr_1"
reports = ["mgr_2"]

[[org.manager]]
id = "mgr_2"
reports = ["mgr_1"]
`)

	err := cli.Run(context.Background(), []string{"kottos", "validate", "--org-config", path}, "test")
	gt.Error(t, err)
}

func TestRun_ValidateCommand_InvalidEngine(t *testing.T) {
	path := writeFile(t, "org.toml", "[org]\nceo = \"ceo_test\"\n")

	err := cli.Run(context.Background(), []string{
		"kottos", "validate", "--org-config", path, "--creation-threshold", "2",
	}, "test")
	gt.Error(t, err)
}

func TestRun_ValidateCommand_MissingPath(t *testing.T) {
	err := cli.Run(context.Background(), []string{"kottos", "validate"}, "test")
	gt.Error(t, err)
}

func TestRun_ValidateCommand_FileNotFound(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"kottos", "validate", "--org-config", filepath.Join(t.TempDir(), "none.toml"),
	}, "test")
	gt.Error(t, err)
}
