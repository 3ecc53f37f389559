package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Compiler invokes the external compiler to turn one source file into its
// intermediate tree file, written alongside the source.
type Compiler struct {
	command string
}

// NewCompiler creates a compiler wrapper around the given executable.
func NewCompiler(command string) *Compiler {
	return &Compiler{command: command}
}

// Compile runs the compiler on srcFile and returns the path of the
// produced intermediate tree file. A non-success exit comes back as an
// error carrying the compiler's output; callers treat it as per-file and
// non-fatal.
func (c *Compiler) Compile(ctx context.Context, srcFile string) (string, error) {
	dir := filepath.Dir(srcFile)
	cmd := exec.CommandContext(ctx, c.command, "+to_core", "-o", dir, srcFile)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return "", fmt.Errorf("%s failed on %s: %w", c.command, srcFile, err)
		}
		return "", fmt.Errorf("%s failed on %s: %s", c.command, srcFile, msg)
	}

	base := strings.TrimSuffix(filepath.Base(srcFile), filepath.Ext(srcFile))
	return filepath.Join(dir, base+".core"), nil
}
