package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/abdul-hamid-achik/tally/internal/chat"
	"github.com/abdul-hamid-achik/tally/internal/dashboard"
	"github.com/abdul-hamid-achik/tally/internal/tally/client"
	"github.com/abdul-hamid-achik/tally/internal/tally/config"
	"github.com/abdul-hamid-achik/tally/internal/tally/output"
)

func TestRootCommand(t *testing.T) {
	cmd := rootCmd
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"tally", "upload", "chat", "report", "serve"} {
		if !strings.Contains(output, want) {
			t.Errorf("Help output should mention %q", want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "tally version ") {
		t.Errorf("version output = %q", buf.String())
	}
}

func TestSelectSections(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"summary", 1, false},
		{"ANOMALIES", 1, false},
		{"all", len(viewSections), false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectSections(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("selectSections(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("selectSections(%q) = %v, want %d sections", tt.name, got, tt.want)
			}
		})
	}
}

func TestStageLabel(t *testing.T) {
	for _, st := range []dashboard.Stage{dashboard.StageUploading, dashboard.StageFetching, dashboard.StageNormalizing, dashboard.StageDone} {
		if stageLabel(st) == "" {
			t.Errorf("stageLabel(%q) is empty", st)
		}
	}
}

func TestSecret(t *testing.T) {
	if secret("") != "" {
		t.Error("empty secret should stay empty")
	}
	if got := secret("minioadmin"); strings.Contains(got, "minio") {
		t.Errorf("secret leaked: %q", got)
	}
}

func TestConfirm(t *testing.T) {
	printer = output.New(output.WithQuiet(true))

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		scanner := bufio.NewScanner(strings.NewReader(tt.input))
		if got := confirm(scanner, "Sure?"); got != tt.want {
			t.Errorf("confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRepl(t *testing.T) {
	var out bytes.Buffer
	printer = output.New(output.WithOutput(&out), output.WithNoColor(true))
	cfg = &config.Config{}

	m := new(client.MockClient)
	m.On("Chat", mock.Anything, "What grew?", mock.Anything).Return("QR payments grew", nil)
	session := chat.NewSession(m, chat.NewMemoryStore())

	input := "What grew?\n\n/clear\ny\n/exit\nnever sent\n"
	if err := repl(context.Background(), session, strings.NewReader(input)); err != nil {
		t.Fatalf("repl() error = %v", err)
	}

	if !strings.Contains(out.String(), "QR payments grew") {
		t.Errorf("reply not printed, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Chat history cleared") {
		t.Errorf("clear not confirmed, got %q", out.String())
	}
	if n := len(session.Messages()); n != 1 {
		t.Errorf("transcript has %d messages after clear, want 1", n)
	}
	m.AssertNumberOfCalls(t, "Chat", 1)
}

func TestReplDeclinedClear(t *testing.T) {
	printer = output.New(output.WithQuiet(true))
	cfg = &config.Config{}

	m := new(client.MockClient)
	m.On("Chat", mock.Anything, mock.Anything, mock.Anything).Return("answer", nil)
	session := chat.NewSession(m, chat.NewMemoryStore())

	if err := repl(context.Background(), session, strings.NewReader("hello\n/clear\nn\n")); err != nil {
		t.Fatalf("repl() error = %v", err)
	}
	if n := len(session.Messages()); n != 3 {
		t.Errorf("transcript has %d messages, want 3", n)
	}
}

func TestCurrentDataset(t *testing.T) {
	cfg = &config.Config{DatasetID: "saved"}
	t.Cleanup(func() { datasetFlag = "" })

	datasetFlag = ""
	if got := currentDataset(); got != "saved" {
		t.Errorf("currentDataset() = %q, want saved", got)
	}
	datasetFlag = "flag"
	if got := currentDataset(); got != "flag" {
		t.Errorf("currentDataset() = %q, want flag", got)
	}
}

func TestArchiveScope(t *testing.T) {
	cfg = &config.Config{DatasetID: "ds-1"}
	t.Cleanup(func() { archiveAll = false })

	archiveAll = false
	if got := archiveScope(); got != "ds-1" {
		t.Errorf("archiveScope() = %q, want ds-1", got)
	}
	archiveAll = true
	if got := archiveScope(); got != "" {
		t.Errorf("archiveScope() with --all = %q, want every dataset", got)
	}
}

func TestReportSubcommands(t *testing.T) {
	for _, name := range []string{"list", "fetch", "prune"} {
		cmd, _, err := reportCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("report %s not registered: %v", name, err)
		}
	}
	if f := reportPruneCmd.Flags().Lookup("older-than"); f == nil || f.DefValue != defaultRetention.String() {
		t.Errorf("prune --older-than default = %v", f)
	}
}
