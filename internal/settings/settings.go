// Package settings 在远端 /api/settings 与本地凭据镜像之间同步凭据。
// 远端可达时以远端为准, 否则退回本地存储。
package settings

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/domain-cutover/internal/backend"
	"github.com/domain-cutover/internal/credstore"
	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/internal/state"
	"github.com/domain-cutover/pkg/config"
	"github.com/domain-cutover/pkg/logger"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Backend 是设置接口所需的后端能力
type Backend interface {
	GetSettings(ctx context.Context) (backend.SettingsResponse, error)
	SaveSettings(ctx context.Context, creds model.Credentials) error
}

// Site 描述横幅显示的位置和停留时间
type Site struct {
	Slot      state.Slot
	BannerTTL time.Duration
}

type Options struct {
	Console     Site // 控制台内的设置表单
	Page        Site // 独立设置页
	RedactDelay time.Duration
}

// DefaultOptions 控制台横幅 3 秒, 设置页 5 秒, 1 秒后清除密钥
func DefaultOptions() Options {
	return Options{
		Console:     Site{Slot: state.SlotSettingsStatus, BannerTTL: 3 * time.Second},
		Page:        Site{Slot: state.SlotAlert, BannerTTL: 5 * time.Second},
		RedactDelay: time.Second,
	}
}

// OptionsFromConfig 用 ui 配置覆盖默认值, 未设置 (0) 的项保持默认
func OptionsFromConfig(cfg *config.UIConfig) Options {
	opts := DefaultOptions()
	if cfg.BannerTTL > 0 {
		opts.Console.BannerTTL = cfg.BannerTTL
	}
	if cfg.SettingsBannerTTL > 0 {
		opts.Page.BannerTTL = cfg.SettingsBannerTTL
	}
	if cfg.RedactDelay > 0 {
		opts.RedactDelay = cfg.RedactDelay
	}
	return opts
}

type Client struct {
	backend  Backend
	store    *credstore.Store
	state    *state.ClientState
	validate *validator.Validate
	opts     Options
}

func New(b Backend, store *credstore.Store, st *state.ClientState, opts Options) *Client {
	v := validator.New()
	// 错误信息中使用 JSON 字段名, 与页面输入框 id 一致
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &Client{backend: b, store: store, state: st, validate: v, opts: opts}
}

func (c *Client) Options() Options { return c.opts }

// Load 读取凭据并填充表单。远端返回非空邮箱时采用远端数据并写入本地镜像,
// 其他情况 (网络错误, 非 2xx, 空数据) 使用本地镜像。
func (c *Client) Load(ctx context.Context) model.Credentials {
	creds := c.load(ctx)
	c.state.SetCredentials(creds)
	return creds
}

func (c *Client) load(ctx context.Context) model.Credentials {
	resp, err := c.backend.GetSettings(ctx)
	if err != nil {
		logger.Logger.Warn("加载远端设置失败, 使用本地存储", zap.Error(err))
		return c.store.Get(ctx)
	}
	if resp.CloudflareEmail == "" {
		return c.store.Get(ctx)
	}
	creds := c.store.WithDefaults(resp.Credentials())
	c.store.Set(ctx, creds)
	return creds
}

// Save 校验并提交凭据。任何一项为空时不发请求, 直接显示错误横幅。
func (c *Client) Save(ctx context.Context, site Site, creds model.Credentials) error {
	creds = creds.Trimmed()
	c.state.SetCredentials(creds)

	if err := c.check(creds); err != nil {
		c.state.ShowBanner(site.Slot, state.BannerError, err.Error(), site.BannerTTL)
		return err
	}

	if err := c.backend.SaveSettings(ctx, creds); err != nil {
		var msg string
		if errors.Is(err, model.ErrRemote) {
			msg = "Error: " + err.Error()
		} else {
			msg = "Error saving settings: " + err.Error()
		}
		logger.Logger.Error("保存设置失败", zap.String("kind", model.Kind(err)), zap.Error(err))
		c.state.ShowBanner(site.Slot, state.BannerError, msg, site.BannerTTL)
		return err
	}

	c.store.Set(ctx, creds)
	c.state.ShowBanner(site.Slot, state.BannerSuccess, "Settings saved on the server!", site.BannerTTL)
	c.state.ScheduleRedact(c.opts.RedactDelay)
	logger.Logger.Info("设置已保存", zap.String("cloudflare_email", creds.CloudflareEmail))
	return nil
}

// check 只检查非空, 不校验格式
func (c *Client) check(creds model.Credentials) error {
	err := c.validate.Struct(creds)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.Validation(err.Error())
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return model.Validation(fmt.Sprintf("Please fill in all required fields: %s", strings.Join(missing, ", ")))
}
