package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/domain-cutover/internal/backend"
	"github.com/domain-cutover/internal/credstore"
	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/internal/render"
	"github.com/domain-cutover/internal/state"
	"github.com/domain-cutover/pkg/logger"
	"go.uber.org/zap"
)

const runAllAction = "run-all"

// 面向用户的校验消息
const (
	MsgConfigureKeys = `Configure the API keys in the "API settings" section first!`
	MsgNoDomains     = "Please enter at least one domain"
	MsgNoIP          = "Please enter an IP address"
)

// Backend 是执行步骤所需的后端能力
type Backend interface {
	RunStage(ctx context.Context, stage model.Stage, req backend.StageRequest) (model.Outcome, error)
	RunAll(ctx context.Context, req backend.StageRequest) (model.Bundle, *model.Outcome, error)
}

// Runner 从会话表单读取输入, 调用后端并把结果写回结果区
type Runner struct {
	backend  Backend
	store    *credstore.Store
	state    *state.ClientState
	renderer *render.Renderer
}

func NewRunner(b Backend, store *credstore.Store, st *state.ClientState, r *render.Renderer) *Runner {
	return &Runner{backend: b, store: store, state: st, renderer: r}
}

// ParseDomains 按行拆分, 去掉首尾空白并丢弃空行, 保持原有顺序
func ParseDomains(text string) []string {
	var domains []string
	for _, line := range strings.Split(text, "\n") {
		if d := strings.TrimSpace(line); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// RunStage 执行单个步骤。返回的错误已经渲染到结果区, 调用方只需用于退出码或日志。
func (r *Runner) RunStage(ctx context.Context, s model.Stage) (model.Outcome, error) {
	release, ok := r.state.TryBegin(s.Key())
	if !ok {
		return model.Outcome{}, model.InFlight(fmt.Sprintf("Stage %d is already running", int(s)))
	}
	defer release()

	req, err := r.prepare(ctx, s.NeedsIP())
	if err != nil {
		return model.Outcome{}, err
	}

	log := logger.Logger.With(zap.String("stage", s.Key()), zap.Int("domains", len(req.Domains)))
	log.Info("开始执行步骤")
	r.state.SetResults(r.renderer.Loading(fmt.Sprintf("Running stage %d...", int(s))))

	outcome, err := r.backend.RunStage(ctx, s, req)
	if err != nil {
		log.Warn("步骤请求失败", zap.Error(err))
		r.state.SetResults(r.renderer.Error("Error: " + err.Error()))
		return model.Outcome{}, err
	}
	if outcome.Kind == model.OutcomeError {
		log.Warn("后端返回错误", zap.String("message", outcome.Message))
		r.state.SetResults(r.renderer.Error(outcome.Message))
		return outcome, model.Remote(outcome.Message)
	}

	r.state.SetResults(r.renderer.Render(s.Title(), outcome))
	log.Info("步骤执行完成", zap.Int("results", len(outcome.Items)))
	return outcome, nil
}

// RunAllStages 把四个步骤交给后端 /api/run-all 一次完成, IP 地址始终必填
func (r *Runner) RunAllStages(ctx context.Context) (model.Bundle, error) {
	release, ok := r.state.TryBegin(runAllAction)
	if !ok {
		return nil, model.InFlight("All stages are already running")
	}
	defer release()

	req, err := r.prepare(ctx, true)
	if err != nil {
		return nil, err
	}

	log := logger.Logger.With(zap.String("stage", runAllAction), zap.Int("domains", len(req.Domains)))
	log.Info("开始执行全部步骤")
	r.state.SetResults(r.renderer.Loading("Running all stages..."))

	bundle, remote, err := r.backend.RunAll(ctx, req)
	if err != nil {
		log.Warn("run-all 请求失败", zap.Error(err))
		r.state.SetResults(r.renderer.Error("Error: " + err.Error()))
		return nil, err
	}
	if remote != nil {
		log.Warn("后端返回错误", zap.String("message", remote.Message))
		r.state.SetResults(r.renderer.Error(remote.Message))
		return nil, model.Remote(remote.Message)
	}

	r.state.SetResults(r.renderer.RenderBundle(bundle))
	log.Info("全部步骤执行完成", zap.Int("stages", len(bundle)))
	return bundle, nil
}

// prepare 完成所有发请求前的检查; 失败时把错误渲染到结果区
func (r *Runner) prepare(ctx context.Context, needIP bool) (backend.StageRequest, error) {
	creds := r.store.Get(ctx)
	if !creds.Complete() {
		return backend.StageRequest{}, r.reject(MsgConfigureKeys)
	}

	form := r.state.Form()
	domains := ParseDomains(form.Domains)
	if len(domains) == 0 {
		return backend.StageRequest{}, r.reject(MsgNoDomains)
	}

	req := backend.StageRequest{Domains: domains, APIKeys: &creds}
	if needIP {
		ip := strings.TrimSpace(form.IPAddress)
		if ip == "" {
			return backend.StageRequest{}, r.reject(MsgNoIP)
		}
		req.IPAddress = ip
	}
	return req, nil
}

func (r *Runner) reject(msg string) error {
	r.state.SetResults(r.renderer.Error(msg))
	return model.Validation(msg)
}
