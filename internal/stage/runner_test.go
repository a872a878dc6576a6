package stage

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/domain-cutover/internal/backend"
	"github.com/domain-cutover/internal/backend/backendtest"
	"github.com/domain-cutover/internal/credstore"
	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/internal/render"
	"github.com/domain-cutover/internal/state"
	"github.com/domain-cutover/internal/storage"
	"github.com/domain-cutover/pkg/logger"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var creds = model.Credentials{
	CloudflareEmail:  "e@x.com",
	CloudflareAPIKey: "cf-key",
	RegistrarAPIURL:  "https://registrar.test",
	RegistrarAPIKey:  "reg-key",
}

type fixture struct {
	srv    *backendtest.Server
	store  *credstore.Store
	state  *state.ClientState
	runner *Runner
}

func newFixture(t *testing.T, withCreds bool) *fixture {
	t.Helper()
	logger.Logger = zaptest.NewLogger(t)

	srv := backendtest.New()
	st := state.New()
	t.Cleanup(func() {
		st.Close()
		srv.Close()
	})
	store := credstore.New(storage.NewMemoryProvider().Namespace("test"), "")
	if withCreds {
		store.Set(context.Background(), creds)
	}
	return &fixture{
		srv:    srv,
		store:  store,
		state:  st,
		runner: NewRunner(backend.New(srv.URL, 0), store, st, render.New()),
	}
}

func TestParseDomains(t *testing.T) {
	cases := map[string][]string{
		"a.com\n\nb.com":            {"a.com", "b.com"},
		"  a.com  \r\n\tb.com\n \n": {"a.com", "b.com"},
		"c.com\na.com\nb.com":       {"c.com", "a.com", "b.com"},
		"":                          nil,
		" \n\t\n":                   nil,
	}
	for in, want := range cases {
		if diff := cmp.Diff(want, ParseDomains(in)); diff != "" {
			t.Errorf("ParseDomains(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestRunStage_EmptyDomainsNoRequest(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("  \n \n", "1.2.3.4")

	_, err := f.runner.RunStage(context.Background(), model.StageCloudflare)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Empty(t, f.srv.Requests())
	assert.Contains(t, string(f.state.Results()), MsgNoDomains)
}

func TestRunAllStages_EmptyDomainsNoRequest(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("", "1.2.3.4")

	_, err := f.runner.RunAllStages(context.Background())
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Empty(t, f.srv.Requests())
	assert.Contains(t, string(f.state.Results()), MsgNoDomains)
}

func TestRunStage1_RequiresIP(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "   ")

	_, err := f.runner.RunStage(context.Background(), model.StageARecords)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Empty(t, f.srv.Requests())
	assert.Contains(t, string(f.state.Results()), MsgNoIP)
}

func TestRunStage_RequiresCredentials(t *testing.T) {
	f := newFixture(t, false)
	f.state.SetInput("a.com", "1.2.3.4")

	_, err := f.runner.RunStage(context.Background(), model.StageTLS)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Empty(t, f.srv.Requests())
	assert.Contains(t, string(f.state.Results()), "API settings")
}

func TestRunStage1_RequestBody(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "1.2.3.4")
	f.srv.Reply(http.MethodPost, "/api/stage1", backendtest.Reply{JSON: map[string]any{
		"results": []map[string]any{{"domain": "a.com", "status": "success", "message": "A record updated"}},
	}})

	outcome, err := f.runner.RunStage(context.Background(), model.StageARecords)
	require.NoError(t, err)
	require.Len(t, outcome.Items, 1)

	reqs := f.srv.RequestsTo("/api/stage1")
	require.Len(t, reqs, 1)
	body := reqs[0].Body
	assert.Equal(t, []any{"a.com"}, body["domains"])
	assert.Equal(t, "1.2.3.4", body["ip_address"])
	assert.Equal(t, map[string]any{
		"cloudflare_email":   "e@x.com",
		"cloudflare_api_key": "cf-key",
		"registrar_api_url":  "https://registrar.test",
		"registrar_api_key":  "reg-key",
	}, body["api_keys"])

	html := string(f.state.Results())
	assert.Contains(t, html, "A record updated")
	assert.Contains(t, html, model.StageARecords.Title())
}

func TestRunStage_LaterStagesIgnoreIP(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com\n\nb.com", "")
	f.srv.Reply(http.MethodPost, "/api/stage3", backendtest.Reply{Raw: `[{"domain":"a.com","status":"success","message":"ok","nameservers":["ns1","ns2"]}]`})

	_, err := f.runner.RunStage(context.Background(), model.StageNameserver)
	require.NoError(t, err)

	body := f.srv.RequestsTo("/api/stage3")[0].Body
	assert.Equal(t, []any{"a.com", "b.com"}, body["domains"])
	assert.NotContains(t, body, "ip_address")
	assert.Contains(t, string(f.state.Results()), "NS: ns1, ns2")
}

func TestRunStage_RemoteError(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "")
	f.srv.Reply(http.MethodPost, "/api/stage2", backendtest.Reply{Status: http.StatusBadRequest, JSON: map[string]any{"error": "Domains are required"}})

	_, err := f.runner.RunStage(context.Background(), model.StageCloudflare)
	assert.True(t, errors.Is(err, model.ErrRemote))
	assert.Contains(t, string(f.state.Results()), "Domains are required")
	assert.Contains(t, string(f.state.Results()), "error-message")
}

func TestRunStage_TransportError(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "")
	f.srv.Close()

	_, err := f.runner.RunStage(context.Background(), model.StageTLS)
	assert.True(t, errors.Is(err, model.ErrTransport))
	assert.Contains(t, string(f.state.Results()), "Error: ")
}

func TestRunAllStages_RequiresIP(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "")

	_, err := f.runner.RunAllStages(context.Background())
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Empty(t, f.srv.Requests())
}

func TestRunAllStages_OnlyStage2(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "1.2.3.4")
	f.srv.Reply(http.MethodPost, "/api/run-all", backendtest.Reply{JSON: map[string]any{
		"stage2": map[string]any{"results": []map[string]any{{"domain": "a.com", "status": "success", "message": "zone added"}}},
	}})

	bundle, err := f.runner.RunAllStages(context.Background())
	require.NoError(t, err)
	assert.Len(t, bundle, 1)

	// 只发出一次请求, 步骤顺序由后端负责
	require.Len(t, f.srv.Requests(), 1)
	body := f.srv.Requests()[0].Body
	assert.Equal(t, "1.2.3.4", body["ip_address"])

	html := string(f.state.Results())
	assert.Equal(t, 1, strings.Count(html, `class="stage-result"`))
	assert.Contains(t, html, model.StageCloudflare.Title())
	assert.Contains(t, html, "zone added")
}

func TestRunAllStages_RemoteError(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "1.2.3.4")
	f.srv.Reply(http.MethodPost, "/api/run-all", backendtest.Reply{Status: http.StatusBadRequest, JSON: map[string]any{"error": "IP required"}})

	_, err := f.runner.RunAllStages(context.Background())
	assert.True(t, errors.Is(err, model.ErrRemote))
	assert.Contains(t, string(f.state.Results()), "IP required")
}

func TestRunStage_InFlightGuard(t *testing.T) {
	f := newFixture(t, true)
	f.state.SetInput("a.com", "")
	f.srv.Reply(http.MethodPost, "/api/stage2", backendtest.Reply{Raw: `{"results":[]}`})
	release := f.srv.Hold(http.MethodPost, "/api/stage2")
	defer release()

	done := make(chan error, 1)
	go func() {
		_, err := f.runner.RunStage(context.Background(), model.StageCloudflare)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return len(f.srv.RequestsTo("/api/stage2")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, string(f.state.Results()), "Running stage 2...")

	_, err := f.runner.RunStage(context.Background(), model.StageCloudflare)
	assert.True(t, errors.Is(err, model.ErrInFlight))
	assert.Len(t, f.srv.RequestsTo("/api/stage2"), 1, "second trigger must not reach the backend")

	release()
	require.NoError(t, <-done)

	// 完成后可以再次触发
	_, err = f.runner.RunStage(context.Background(), model.StageCloudflare)
	require.NoError(t, err)
	assert.Len(t, f.srv.RequestsTo("/api/stage2"), 2)
}
