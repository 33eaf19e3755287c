package shell

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestEvalSuccess(t *testing.T) {
	ok, err := Eval(context.Background(), "true")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Eval(true) should return true")
	}
}

func TestEvalFailure(t *testing.T) {
	ok, err := Eval(context.Background(), "false")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Eval(false) should return false")
	}
}

func TestEvalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := Eval(ctx, "sleep 10")
	if err == nil {
		t.Error("expected error for cancelled context")
	}
	if ok {
		t.Error("Eval on a cancelled context should not report success")
	}
}

func TestEvalShellSyntax(t *testing.T) {
	ok, err := Eval(context.Background(), `test -n "$HOME" && [ 1 -lt 2 ]`)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("compound check should succeed")
	}
}

func TestPresent(t *testing.T) {
	if !Present("sh") {
		t.Error("Present(sh) should be true")
	}
	if Present("dots_nonexistent_binary_xyz_12345") {
		t.Error("Present(nonexistent) should be false")
	}
}

func TestExitCode(t *testing.T) {
	err := Command(context.Background(), "exit 3").Run()
	code, ok := ExitCode(err)
	if !ok {
		t.Fatalf("ExitCode(%v) not ok", err)
	}
	if code != 3 {
		t.Errorf("code = %d, want 3", code)
	}

	wrapped := fmt.Errorf("step failed: %w", err)
	if code, ok := ExitCode(wrapped); !ok || code != 3 {
		t.Errorf("ExitCode(wrapped) = %d, %v", code, ok)
	}

	if _, ok := ExitCode(errors.New("plain")); ok {
		t.Error("ExitCode(plain) should not be ok")
	}
	if _, ok := ExitCode(nil); ok {
		t.Error("ExitCode(nil) should not be ok")
	}
}
