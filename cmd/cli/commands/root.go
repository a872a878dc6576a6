package commands

import (
	"context"
	"fmt"

	"github.com/domain-cutover/internal/backend"
	"github.com/domain-cutover/internal/model"
	"github.com/domain-cutover/internal/session"
	"github.com/domain-cutover/internal/settings"
	"github.com/domain-cutover/internal/storage"
	"github.com/domain-cutover/pkg/config"
	"github.com/domain-cutover/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 是子命令共享的依赖, 由根命令的 PersistentPreRunE 构造
type app struct {
	backendURL string
	driver     string
	namespace  string
	noLog      bool
	creds      credentialFlags

	cfg      *config.Config
	sessions *session.Manager
	sess     *session.Session
	closers  []func() error
}

type credentialFlags struct {
	cloudflareEmail  string
	cloudflareAPIKey string
	registrarAPIURL  string
	registrarAPIKey  string
}

func Execute() error {
	root, a := newRootCmd()
	// 子命令失败时 cobra 不执行 PersistentPostRun, 统一在这里释放
	defer a.close()

	err := root.Execute()
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "error: %v\n", err)
	}
	return err
}

// newRootCmd 每次返回一棵新的命令树, 测试中可以多次执行
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "cutover",
		Short:         "Move domains to a new IP, Cloudflare and new nameservers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.backendURL, "backend", "", "backend base URL (overrides backend.base_url)")
	pf.StringVar(&a.driver, "storage", "", "credential storage driver: memory, postgres, redis")
	pf.StringVar(&a.namespace, "session", "cli", "storage namespace for the saved credentials")
	pf.BoolVar(&a.noLog, "no-log", false, "disable the log file")
	pf.StringVar(&a.creds.cloudflareEmail, "cloudflare-email", "", "Cloudflare account email")
	pf.StringVar(&a.creds.cloudflareAPIKey, "cloudflare-api-key", "", "Cloudflare global API key")
	pf.StringVar(&a.creds.registrarAPIURL, "registrar-api-url", "", "registrar API URL")
	pf.StringVar(&a.creds.registrarAPIKey, "registrar-api-key", "", "registrar API key")

	root.AddCommand(stageCmd(a), runAllCmd(a), settingsCmd(a))
	return root, a
}

func (a *app) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if a.backendURL != "" {
		cfg.Backend.BaseURL = a.backendURL
	}
	if a.driver != "" {
		cfg.Storage.Driver = a.driver
	}
	a.cfg = cfg

	// 命令行输出留给结果, 日志只写文件
	logCfg := cfg.Logger
	logCfg.Mode = "prod"
	if a.noLog {
		logCfg.Path = ""
	}
	if err := logger.InitLogger(&logCfg, "cli"); err != nil {
		return err
	}
	for _, w := range cfg.Check() {
		logger.Logger.Warn("配置检查", zap.String("warning", w))
	}

	provider, closeStorage, err := storage.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("init storage %q: %w", cfg.Storage.Driver, err)
	}
	a.closers = append(a.closers, closeStorage)

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	a.sessions = session.NewManager(provider, client, settings.OptionsFromConfig(&cfg.UI), cfg.Credentials.RegistrarAPIURL)
	a.sess = a.sessions.Get(a.namespace)
	return nil
}

func (a *app) close() {
	if a.sessions != nil {
		a.sessions.Close()
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.Logger.Warn("关闭资源失败", zap.Error(err))
		}
	}
	a.closers = nil
	_ = logger.Logger.Sync()
}

// loadCredentials 同步远端设置, 再用命令行上给出的字段覆盖
func (a *app) loadCredentials(ctx context.Context) model.Credentials {
	creds := a.sess.Settings.Load(ctx)
	return a.creds.apply(creds)
}

func (f credentialFlags) apply(c model.Credentials) model.Credentials {
	if f.cloudflareEmail != "" {
		c.CloudflareEmail = f.cloudflareEmail
	}
	if f.cloudflareAPIKey != "" {
		c.CloudflareAPIKey = f.cloudflareAPIKey
	}
	if f.registrarAPIURL != "" {
		c.RegistrarAPIURL = f.registrarAPIURL
	}
	if f.registrarAPIKey != "" {
		c.RegistrarAPIKey = f.registrarAPIKey
	}
	return c
}

func (f credentialFlags) any() bool {
	return f != credentialFlags{}
}
