package buildroot

import (
	"strings"
	"testing"
)

func TestRelativeToTree(t *testing.T) {
	t.Parallel()

	rel, err := RelativeToTree("/src/buildroot", "/src/board/patches")
	if err != nil {
		t.Fatalf("RelativeToTree() error = %v", err)
	}
	if rel != "../board/patches" {
		t.Fatalf("RelativeToTree() = %q, want %q", rel, "../board/patches")
	}
}

func TestRelativeToTreeRequiresAbsoluteInputs(t *testing.T) {
	t.Parallel()

	if _, err := RelativeToTree("buildroot", "/src/board"); err == nil {
		t.Fatalf("expected error for relative tree path")
	}
	if _, err := RelativeToTree("/src/buildroot", "board"); err == nil {
		t.Fatalf("expected error for relative target path")
	}
}

func TestRelativeToTreeRejectsUnquotablePaths(t *testing.T) {
	t.Parallel()

	_, err := RelativeToTree("/src/buildroot", `/src/bo"ard/patches`)
	if err == nil {
		t.Fatalf("expected error for path with embedded quote")
	}
	if !strings.Contains(err.Error(), "configuration line") {
		t.Fatalf("unexpected error: %v", err)
	}
}
