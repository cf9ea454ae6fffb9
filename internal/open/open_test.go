package open

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		editor string
		line   int
		want   string
	}{
		{"vim", 12, "vim +12 chat.txt"},
		{"nvim", 0, "nvim +1 chat.txt"},
		{"less", 3, "less +3 chat.txt"},
		{"code -w", 7, "code -w --goto chat.txt:7"},
		{"nano", 5, "nano chat.txt"},
		{"", 5, "less +5 chat.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.editor, func(t *testing.T) {
			cmd := Command(tt.editor, "chat.txt", tt.line)
			got := filepath.Base(cmd.Path)
			if len(cmd.Args) > 1 {
				got += " " + strings.Join(cmd.Args[1:], " ")
			}
			if got != tt.want {
				t.Errorf("Command(%q) = %q, want %q", tt.editor, got, tt.want)
			}
		})
	}
}

func TestEditor(t *testing.T) {
	t.Setenv("EDITOR", "")
	if got := Editor(); got != "less" {
		t.Errorf("Editor() = %q, want less", got)
	}
	t.Setenv("EDITOR", "hx")
	if got := Editor(); got != "hx" {
		t.Errorf("Editor() = %q, want hx", got)
	}
}

func TestFileMissing(t *testing.T) {
	if err := File("less", filepath.Join(t.TempDir(), "none.txt"), 1); err == nil {
		t.Fatal("File() on missing path succeeded")
	}
}
