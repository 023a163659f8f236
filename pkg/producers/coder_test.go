package producers

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestProduceCodeStripsFences(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"bare code", "df = df.dropna()", "df = df.dropna()"},
		{"python fence", "```python\ndf = df.dropna()\n```", "df = df.dropna()"},
		{"plain fence", "```\ndf = df.dropna()\n```", "df = df.dropna()"},
		{"surrounding whitespace", "  \ndf = df.dropna()\n ", "df = df.dropna()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coder := NewCoder(&fakeClient{response: tt.response}, Prompts{}, nil)

			code, err := coder.ProduceCode(context.Background(), "drop missing rows")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tt.want {
				t.Errorf("expected %q, got %q", tt.want, code)
			}
		})
	}
}

func TestProduceCodeEmptyResponse(t *testing.T) {
	coder := NewCoder(&fakeClient{response: "```python\n```"}, Prompts{}, nil)
	if _, err := coder.ProduceCode(context.Background(), "task"); err == nil {
		t.Fatal("expected error for empty generated code")
	}
}

func TestProduceCodeTransportError(t *testing.T) {
	coder := NewCoder(&fakeClient{err: errors.New("timeout")}, Prompts{}, nil)
	if _, err := coder.ProduceCode(context.Background(), "task"); err == nil {
		t.Fatal("expected transport error to surface")
	}
}

func TestRepairCodePromptContents(t *testing.T) {
	client := &fakeClient{response: "df = df.fillna(0)"}
	coder := NewCoder(client, Prompts{}, nil)

	repaired, err := coder.RepairCode(context.Background(), "df = df.fill(0)", "AttributeError: no attribute 'fill'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repaired != "df = df.fillna(0)" {
		t.Errorf("unexpected repaired code %q", repaired)
	}
	req := client.users[0]
	if !strings.Contains(req, "df = df.fill(0)") {
		t.Errorf("repair request missing faulty code:\n%s", req)
	}
	if !strings.Contains(req, "AttributeError") {
		t.Errorf("repair request missing error traceback:\n%s", req)
	}
}

func TestStripFencesKeepsInnerBackticks(t *testing.T) {
	in := "```python\nprint('a `b` c')\n```"
	if got := stripFences(in); got != "print('a `b` c')" {
		t.Errorf("unexpected result %q", got)
	}
}
