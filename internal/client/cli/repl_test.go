package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	calls []string
	args  [][]string
}

func (f *fakeExec) call(name string, args []string) {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
}

func (f *fakeExec) Add(ctx context.Context, args []string) error    { f.call("add", args); return nil }
func (f *fakeExec) AddDir(ctx context.Context, args []string) error { f.call("adddir", args); return nil }
func (f *fakeExec) Remove(ctx context.Context, args []string) error { f.call("remove", args); return nil }
func (f *fakeExec) List(ctx context.Context) error                  { f.call("list", nil); return nil }
func (f *fakeExec) Start(ctx context.Context) error                 { f.call("start", nil); return nil }
func (f *fakeExec) History(ctx context.Context) error               { f.call("history", nil); return nil }
func (f *fakeExec) Clear(ctx context.Context) error                 { f.call("clear", nil); return nil }

func muteOutput(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	muteOutput(t)

	input := strings.Join([]string{
		"help",
		"add /tmp/a.jpg holiday beach",
		"adddir /tmp/photos",
		"l",
		"start",
		"history",
		"remove task-1",
		"clear",
		"unknowncmd",
		"exit",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, bufio.NewScanner(strings.NewReader(input)))

	want := []string{"add", "adddir", "list", "start", "history", "remove", "clear"}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls mismatch: got %v, want %v", exec.calls, want)
	}
	for i, c := range exec.calls {
		if c != want[i] {
			t.Fatalf("call %d: got %s, want %s", i, c, want[i])
		}
	}
	if got := exec.args[0]; len(got) != 3 || got[0] != "/tmp/a.jpg" {
		t.Fatalf("add args: %v", got)
	}
	if got := exec.args[5]; len(got) != 1 || got[0] != "task-1" {
		t.Fatalf("remove args: %v", got)
	}
}

func TestRunREPL_UsageLinesSkipDispatch(t *testing.T) {
	muteOutput(t)

	input := "add\nadddir\nremove\n\nquit\n"
	exec := &fakeExec{}
	runREPL(context.Background(), exec, bufio.NewScanner(strings.NewReader(input)))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_EOFExits(t *testing.T) {
	muteOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, bufio.NewScanner(strings.NewReader("list\n")))

	if len(exec.calls) != 1 || exec.calls[0] != "list" {
		t.Fatalf("calls: %v", exec.calls)
	}
}
