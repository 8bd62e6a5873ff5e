package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(ctx context.Context) error {
	f.calls = append(f.calls, "register")
	return nil
}
func (f *fakeExec) Login(ctx context.Context) error {
	f.calls = append(f.calls, "login")
	f.loggedIn = true
	return nil
}
func (f *fakeExec) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return nil
}
func (f *fakeExec) Migrate(ctx context.Context) error {
	f.calls = append(f.calls, "migrate")
	return nil
}
func (f *fakeExec) List(ctx context.Context) error { f.calls = append(f.calls, "list"); return nil }
func (f *fakeExec) Show(ctx context.Context, id string) error {
	f.calls = append(f.calls, "show")
	f.args = append(f.args, id)
	return nil
}
func (f *fakeExec) Add(ctx context.Context) error { f.calls = append(f.calls, "add"); return nil }
func (f *fakeExec) Delete(ctx context.Context, id string) error {
	f.calls = append(f.calls, "del")
	f.args = append(f.args, id)
	return nil
}
func (f *fakeExec) Favorite(ctx context.Context, id string) error {
	f.calls = append(f.calls, "fav")
	f.args = append(f.args, id)
	return nil
}
func (f *fakeExec) MyCard(ctx context.Context) error {
	f.calls = append(f.calls, "mycard")
	return nil
}
func (f *fakeExec) SetMyCard(ctx context.Context) error {
	f.calls = append(f.calls, "setcard")
	return nil
}
func (f *fakeExec) Export(ctx context.Context, path string) error {
	f.calls = append(f.calls, "export")
	f.args = append(f.args, path)
	return nil
}
func (f *fakeExec) Import(ctx context.Context, path string) error {
	f.calls = append(f.calls, "import")
	f.args = append(f.args, path)
	return nil
}

func silencePrintln(t *testing.T) {
	t.Helper()
	orig := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = orig })
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"login",
		"help",
		"add",
		"list",
		"show 123",
		"fav 123",
		"del 123",
		"migrate",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{loggedIn: false}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "status" }, sc)

	wantOrder := []string{"login", "add", "list", "show", "fav", "del", "migrate"}
	idx := 0
	for _, c := range exec.calls {
		if idx < len(wantOrder) && c == wantOrder[idx] {
			idx++
		}
	}
	if idx != len(wantOrder) {
		t.Fatalf("commands order mismatch: got %v, want subseq %v", exec.calls, wantOrder)
	}
	if len(exec.args) != 3 || exec.args[0] != "123" {
		t.Fatalf("unexpected args: %v", exec.args)
	}
}

func TestRunREPL_UsageLinesDoNotDispatch(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader("show\ndel\nfav\nexport\nimport\nquit\n")
	exec := &fakeExec{loggedIn: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("commands dispatched without arguments: %v", exec.calls)
	}
}

func TestRunREPL_ExportImportPaths(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader("export dump.json\nimport dump.json\nexit\n")
	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if len(exec.calls) != 2 || exec.calls[0] != "export" || exec.calls[1] != "import" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	if len(exec.args) != 2 || exec.args[0] != "dump.json" || exec.args[1] != "dump.json" {
		t.Fatalf("unexpected args: %v", exec.args)
	}
}

func TestRunREPL_EOFEndsLoop(t *testing.T) {
	silencePrintln(t)

	input := strings.NewReader("list\n")
	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, func() string { return "" }, sc)

	if len(exec.calls) != 1 || exec.calls[0] != "list" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
