package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lojasmm/askbot/internal/bot"
)

func testConfig(t *testing.T) (*CliConfig, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	return &CliConfig{
		Name:        "askbot",
		Description: "test",
		Exit:        func(code int) { t.Fatalf("unexpected exit %d", code) },
		Stdout:      &out,
		Stderr:      &errOut,
		Context:     context.Background(),
	}, &out
}

func apiServer(t *testing.T, status int, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	for _, k := range []string{"NUCLIA_API_KEY", "API_KEY", "X_API_KEY", "API_TOKEN", "TOKEN", "MESSAGE_LIMIT", "MAX_SOURCE_TITLES", "API_TIMEOUT"} {
		t.Setenv(k, "")
	}
	t.Setenv("API_URL", srv.URL)
}

func envFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "none.env")
}

func TestAsk_PrintsFormattedReply(t *testing.T) {
	apiServer(t, http.StatusOK, `{"answer":{"answer":"Use **rapamycin** carefully",
		"find_result":{"best_matches":["r1/p"],"resources":{"r1":{"title":"dose_guide"}}}}}`)
	config, out := testConfig(t)

	err := Run([]string{"--env-file", envFile(t), "ask", "what", "about", "rapamycin?"}, config)

	require.NoError(t, err)
	assert.Equal(t, "Use *rapamycin* carefully\n\n*Sources:*\n- dose\\_guide\n", out.String())
}

func TestAsk_Raw(t *testing.T) {
	apiServer(t, http.StatusOK, `{"answer":{"answer":"hi"}}`)
	config, out := testConfig(t)

	err := Run([]string{"--env-file", envFile(t), "ask", "--raw", "hello"}, config)

	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":{"answer":"hi"}}`, out.String())
}

func TestAsk_FailurePrintsFixedMessage(t *testing.T) {
	apiServer(t, http.StatusInternalServerError, `{"detail":"boom"}`)
	config, out := testConfig(t)

	err := Run([]string{"--env-file", envFile(t), "ask", "hello"}, config)

	assert.Error(t, err)
	assert.Equal(t, bot.MsgFailure+"\n", out.String())
	assert.NotContains(t, out.String(), "boom")
}

func TestAsk_NoAnswer(t *testing.T) {
	apiServer(t, http.StatusOK, `{"answer":{}}`)
	config, out := testConfig(t)

	err := Run([]string{"--env-file", envFile(t), "ask", "hello"}, config)

	require.NoError(t, err)
	assert.Equal(t, bot.MsgNoAnswer+"\n", out.String())
}

func TestAsk_ChunksLongReplies(t *testing.T) {
	apiServer(t, http.StatusOK, `{"answer":{"answer":"aaaa\nbbbb\ncccc"}}`)
	t.Setenv("MESSAGE_LIMIT", "9")
	config, out := testConfig(t)

	err := Run([]string{"--env-file", envFile(t), "ask", "hello"}, config)

	require.NoError(t, err)
	assert.Equal(t, "aaaa\nbbbb\n---\ncccc\n", out.String())
}

func TestServe_RequiresBotToken(t *testing.T) {
	for _, k := range []string{"TELEGRAM_BOT_TOKEN", "TG_BOT_TOKEN", "BOT_TOKEN"} {
		t.Setenv(k, "")
	}
	config, _ := testConfig(t)

	err := Run([]string{"--env-file", envFile(t), "serve"}, config)

	assert.ErrorContains(t, err, "bot token not found")
}

func TestRun_UnknownCommand(t *testing.T) {
	config, _ := testConfig(t)

	err := Run([]string{"frobnicate"}, config)

	assert.Error(t, err)
}
