package commands

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/domain-cutover/internal/backend/backendtest"
	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/internal/stage"
	"github.com/domain-cutover/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var credentialArgs = []string{
	"--cloudflare-email", "e@x.com",
	"--cloudflare-api-key", "cf-key",
	"--registrar-api-url", "https://registrar.test",
	"--registrar-api-key", "reg-key",
}

func run(t *testing.T, srv *backendtest.Server, args ...string) (string, error) {
	t.Helper()
	logger.Logger = zaptest.NewLogger(t)

	root, a := newRootCmd()
	t.Cleanup(a.close)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--backend", srv.URL, "--storage", "memory", "--no-log"}, args...))
	err := root.Execute()
	return out.String(), err
}

func newServer(t *testing.T) *backendtest.Server {
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	return srv
}

func TestStage_PrintsResults(t *testing.T) {
	srv := newServer(t)
	srv.Reply(http.MethodPost, "/api/stage2", backendtest.Reply{JSON: []model.StageResult{
		{Domain: "a.com", Status: model.StatusSuccess, Message: "added", Nameservers: []string{"ns1", "ns2"}},
		{Domain: "b.com", Status: model.StatusError, Message: "exists"},
	}})

	args := append([]string{"stage", "2", "--domains", "a.com", "--domains", " b.com "}, credentialArgs...)
	out, err := run(t, srv, args...)
	require.NoError(t, err)
	assert.Equal(t, "== Stage 2: Add to Cloudflare\n"+
		"[OK] a.com: added (NS: ns1, ns2)\n"+
		"[ERR] b.com: exists\n", out)

	reqs := srv.RequestsTo("/api/stage2")
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{"a.com", "b.com"}, reqs[0].Body["domains"])
	assert.NotContains(t, reqs[0].Body, "ip_address")
}

func TestStage_DomainsFile(t *testing.T) {
	srv := newServer(t)
	srv.Reply(http.MethodPost, "/api/stage1", backendtest.Reply{JSON: map[string]any{
		"results": []model.StageResult{{Domain: "a.com", Status: model.StatusSuccess, Message: "ok"}},
	}})
	file := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(file, []byte("a.com\n\nc.com\n"), 0o600))

	args := append([]string{"stage", "1", "--domains-file", file, "--ip", "1.2.3.4"}, credentialArgs...)
	_, err := run(t, srv, args...)
	require.NoError(t, err)

	reqs := srv.RequestsTo("/api/stage1")
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{"a.com", "c.com"}, reqs[0].Body["domains"])
	assert.Equal(t, "1.2.3.4", reqs[0].Body["ip_address"])
}

func TestStage_MissingCredentials(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, srv, "stage", "2", "--domains", "a.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Equal(t, stage.MsgConfigureKeys, err.Error())
	assert.Empty(t, srv.RequestsTo("/api/stage2"))
}

func TestStage_MissingIP(t *testing.T) {
	srv := newServer(t)

	args := append([]string{"stage", "1", "--domains", "a.com"}, credentialArgs...)
	_, err := run(t, srv, args...)
	require.Error(t, err)
	assert.Equal(t, stage.MsgNoIP, err.Error())
	assert.Empty(t, srv.RequestsTo("/api/stage1"))
}

func TestStage_InvalidNumber(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, srv, "stage", "5", "--domains", "a.com")
	require.Error(t, err)
	assert.Empty(t, srv.Requests())
}

func TestStage_RemoteError(t *testing.T) {
	srv := newServer(t)
	srv.Reply(http.MethodPost, "/api/stage3", backendtest.Reply{JSON: map[string]any{"error": "registrar down"}})

	args := append([]string{"stage", "3", "--domains", "a.com"}, credentialArgs...)
	_, err := run(t, srv, args...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrRemote))
	assert.Equal(t, "registrar down", err.Error())
}

func TestRunAll_PrintsStagesInOrder(t *testing.T) {
	srv := newServer(t)
	item := func(msg string) []model.StageResult {
		return []model.StageResult{{Domain: "a.com", Status: model.StatusSuccess, Message: msg}}
	}
	srv.Reply(http.MethodPost, "/api/run-all", backendtest.Reply{JSON: map[string]any{
		"stage4": item("tls"),
		"stage1": item("a"),
		"stage3": nil,
		"stage2": item("cf"),
	}})

	args := append([]string{"run-all", "--domains", "a.com", "--ip", "1.2.3.4"}, credentialArgs...)
	out, err := run(t, srv, args...)
	require.NoError(t, err)
	assert.Equal(t, "Results of all stages\n"+
		"== Stage 1: Update A records\n[OK] a.com: a\n"+
		"== Stage 2: Add to Cloudflare\n[OK] a.com: cf\n"+
		"== Stage 4: Configure TLS/HTTPS\n[OK] a.com: tls\n", out)
}

func TestSettingsShow_MasksKeys(t *testing.T) {
	srv := newServer(t)
	srv.Reply(http.MethodGet, "/api/settings", backendtest.Reply{JSON: map[string]any{
		"cloudflare_email":   "e@x.com",
		"cloudflare_api_key": "secret",
		"registrar_api_key":  "secret2",
	}})

	out, err := run(t, srv, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "cloudflare_email:   e@x.com\n")
	assert.Contains(t, out, "cloudflare_api_key: ********\n")
	assert.Contains(t, out, "registrar_api_url:  https://adm.tools/action\n")
	assert.NotContains(t, out, "secret")
}

func TestSettingsSave(t *testing.T) {
	srv := newServer(t)
	srv.Reply(http.MethodPost, "/api/settings", backendtest.Reply{JSON: map[string]any{"success": true}})

	args := append([]string{"settings", "save"}, credentialArgs...)
	out, err := run(t, srv, args...)
	require.NoError(t, err)
	assert.Equal(t, "Settings saved on the server!\n", out)

	reqs := srv.RequestsTo("/api/settings")
	require.Len(t, reqs, 2) // GET 加载 + POST 保存
	assert.Equal(t, "cf-key", reqs[1].Body["cloudflare_api_key"])
}

func TestSettingsSave_MissingFields(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, srv, "settings", "save", "--cloudflare-email", "e@x.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
	for _, r := range srv.Requests() {
		assert.NotEqual(t, http.MethodPost, r.Method)
	}
}
