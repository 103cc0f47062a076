package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := NewRunnerWithWriters(&stdout, &stderr).Run(args)
	return code, stdout.String(), stderr.String()
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stdout, "supertx") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestQuoteCommandEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quote" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"quoteType": "permit",
			"quote": {"id": "q1"},
			"payloadToSign": [],
			"returnedData": [{"outputAmount": "990000", "minOutputAmount": "980000"}]
		}`))
	}))
	defer srv.Close()

	code, stdout, stderr := runCLI(t,
		"quote",
		"--base-url", srv.URL,
		"--explorer-url", srv.URL,
		"--owner", "0xOWNER",
		"--src-chain", "1",
		"--dst-chain", "10",
		"--src-token", "0xSRC",
		"--dst-token", "0xDST",
		"--amount", "1000000",
	)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, `"quoteType": "permit"`) {
		t.Errorf("stdout = %s", stdout)
	}
	if !strings.Contains(stdout, "990000") {
		t.Errorf("projected output missing from stdout: %s", stdout)
	}
}

func TestQuoteCommandUsageError(t *testing.T) {
	code, _, stderr := runCLI(t, "quote", "--src-chain", "1")
	if code != 2 {
		t.Fatalf("exit = %d, want the usage exit code", code)
	}
	if !strings.Contains(stderr, "--owner") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestStatusCommandEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/explorer/0xstx1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"SUCCESS","supertxHash":"0xstx1"}`))
	}))
	defer srv.Close()

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	code, stdout, stderr := runCLI(t,
		"status", "0xstx1",
		"--base-url", srv.URL,
		"--explorer-url", srv.URL,
	)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, `"SUCCESS"`) {
		t.Errorf("stdout = %s", stdout)
	}
}
