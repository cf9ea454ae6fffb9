// Package open shows a file in the user's editor or pager.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Editor returns $EDITOR, falling back to less.
func Editor() string {
	if e := strings.TrimSpace(os.Getenv("EDITOR")); e != "" {
		return e
	}
	return "less"
}

// Command builds the invocation that opens path at the 1-based line in
// editor. editor may carry its own arguments ("code -w").
func Command(editor, path string, line int) *exec.Cmd {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		fields = []string{"less"}
	}
	name, args := fields[0], fields[1:]
	if line < 1 {
		line = 1
	}

	switch {
	case strings.Contains(name, "vim"), strings.Contains(name, "less"):
		args = append(args, "+"+strconv.Itoa(line), path)
	case strings.Contains(name, "code"):
		args = append(args, "--goto", path+":"+strconv.Itoa(line))
	default:
		args = append(args, path)
	}
	return exec.Command(name, args...)
}

// File opens path with the terminal attached and waits for the editor.
func File(editor, path string, line int) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	cmd := Command(editor, path, line)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
