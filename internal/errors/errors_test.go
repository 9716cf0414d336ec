package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "config error",
			code:    "O003",
			wantMsg: "Invalid duration",
			wantCat: CategoryConfig,
		},
		{
			name:    "scenario error",
			code:    "O012",
			wantMsg: "Unknown scenario operation",
			wantCat: CategoryScenario,
		},
		{
			name:    "stream error",
			code:    "O020",
			wantMsg: "Server failed",
			wantCat: CategoryStream,
		},
		{
			name:    "unknown error code",
			code:    "O999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "todo.yaml")
	if err.Message != `file "todo.yaml" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestObserveError_Error(t *testing.T) {
	if got, want := New("O004").Error(), "O004: Invalid port"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := New("O002").Wrap(stderrors.New("unexpected EOF"))
	if got, want := wrapped.Error(), "O002: Invalid config file: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &ObserveError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestObserveError_WithLocation(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "todo.yaml")
	content := "initial: [1, 2]\nsteps:\n  - op: push\n    args: [3]\n  - op: pusj\n  - op: pop\n"
	if err := os.WriteFile(tmpFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("O012").WithLocation(tmpFile, 5, 9)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.File != tmpFile || err.Location.Line != 5 || err.Location.Column != 9 {
		t.Errorf("Location = %+v", err.Location)
	}
	if err.ContextStart != 3 {
		t.Errorf("ContextStart = %d, want 3", err.ContextStart)
	}
	if len(err.Context) != 4 {
		t.Fatalf("Context = %q, want 4 lines", err.Context)
	}
	if err.Context[2] != "  - op: pusj" {
		t.Errorf("Context[2] = %q", err.Context[2])
	}
}

func TestObserveError_WithLocationMissingFile(t *testing.T) {
	err := New("O012").WithLocation(filepath.Join(t.TempDir(), "missing.yaml"), 3, 1)
	if err.Location == nil {
		t.Fatal("Location should be set even when the file cannot be read")
	}
	if len(err.Context) != 0 {
		t.Errorf("Context = %q, want none", err.Context)
	}
}

func TestObserveError_WithSourceAtFileStart(t *testing.T) {
	src := []byte("steps:\n  - op: nope\n  - op: pop\n")
	err := New("O012").WithSource("inline.yaml", src, 1, 1)

	if err.ContextStart != 1 {
		t.Errorf("ContextStart = %d, want 1", err.ContextStart)
	}
	if len(err.Context) != 3 {
		t.Errorf("Context = %q, want 3 lines", err.Context)
	}
}

func TestObserveError_Builders(t *testing.T) {
	inner := stderrors.New("boom")
	err := New("O013").
		WithDetail("push needs at least one argument").
		WithSuggestion("Add args: [value]").
		WithExample("- op: push\n  args: [4]").
		Wrap(inner)

	if err.Detail != "push needs at least one argument" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "Add args: [value]" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if !strings.HasPrefix(err.Example, "- op: push") {
		t.Errorf("Example = %q", err.Example)
	}
	if !stderrors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "O020") != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	oe := New("O012")
	if FromError(oe, "O020") != oe {
		t.Error("FromError should return ObserveError as-is")
	}

	std := stderrors.New("listen tcp :8080: bind: address already in use")
	result := FromError(std, "O021")
	if result.Wrapped != std || result.Code != "O021" {
		t.Errorf("FromError = %+v", result)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{name: "nil location", loc: nil, want: ""},
		{name: "with column", loc: &Location{File: "a.yaml", Line: 10, Column: 5}, want: "a.yaml:10:5"},
		{name: "without column", loc: &Location{File: "a.yaml", Line: 10}, want: "a.yaml:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	src := []byte("initial: []\nsteps:\n  - op: push\n  - op: pusj\n  - op: pop\n")
	err := New("O012").
		WithSource("todo.yaml", src, 4, 9).
		WithSuggestion("Use push").
		WithExample("- op: push")

	formatted := err.Format()

	for _, want := range []string{
		"ERROR O012: Unknown scenario operation",
		"todo.yaml:4:9",
		"→    4 │   - op: pusj",
		"         │         ^",
		"Hint: Use push",
		"Example:",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q in:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("O012").WithSource("todo.yaml", nil, 10, 5)
	want := "todo.yaml:10:5: O012: Unknown scenario operation"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("O003").WithSource("observe.json", nil, 4, 0).Wrap(stderrors.New(`time: invalid duration "fast"`))

	var got map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &got); e != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", e)
	}
	if got["code"] != "O003" || got["category"] != "config" || got["message"] != "Invalid duration" {
		t.Errorf("FormatJSON() = %v", got)
	}
	loc, ok := got["location"].(map[string]any)
	if !ok || loc["file"] != "observe.json" || loc["line"] != float64(4) {
		t.Errorf("location = %v", got["location"])
	}
	if _, ok := loc["column"]; ok {
		t.Error("zero column should be omitted")
	}
	if got["cause"] != `time: invalid duration "fast"` {
		t.Errorf("cause = %v", got["cause"])
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	if codes[0] != "O001" {
		t.Errorf("codes should be sorted, first = %q", codes[0])
	}
}

func TestRegister(t *testing.T) {
	Register("O999", ErrorTemplate{
		Category: CategoryCLI,
		Message:  "Custom test error",
	})
	defer func() {
		registryMu.Lock()
		delete(registry, "O999")
		registryMu.Unlock()
	}()

	if err := New("O999"); err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}
	if _, ok := GetTemplate("O999"); !ok {
		t.Error("O999 should be registered")
	}
}

func TestWrapText(t *testing.T) {
	if got := wrapText("short text", 100); len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}
	if got := wrapText("this is a longer text that should be wrapped", 20); len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}
	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	Fprint(&b, New("O004"))
	if !strings.Contains(b.String(), "ERROR O004: Invalid port") {
		t.Errorf("Fprint coded = %q", b.String())
	}

	b.Reset()
	Fprint(&b, fmt.Errorf("step 2: %w", New("O013")))
	if !strings.Contains(b.String(), "ERROR O013") {
		t.Errorf("Fprint wrapped = %q", b.String())
	}

	b.Reset()
	Fprint(&b, stderrors.New("plain"))
	if !strings.Contains(b.String(), "ERROR: plain") {
		t.Errorf("Fprint plain = %q", b.String())
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
