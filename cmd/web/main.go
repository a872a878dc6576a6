package main

import (
	"fmt"

	"github.com/domain-cutover/internal/api/router"
	"github.com/domain-cutover/internal/backend"
	"github.com/domain-cutover/internal/session"
	"github.com/domain-cutover/internal/settings"
	"github.com/domain-cutover/internal/storage"
	"github.com/domain-cutover/pkg/config"
	"github.com/domain-cutover/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	// 加载日志系统
	if err = logger.InitLogger(&cfg.Logger, "web"); err != nil {
		fmt.Println(err)
	}
	defer logger.Logger.Sync()

	for _, w := range cfg.Check() {
		logger.Logger.Warn("配置检查", zap.String("warning", w))
	}
	gin.SetMode(cfg.Server.Mode)

	// 初始化凭据存储
	provider, closeStorage, err := storage.NewProvider(cfg)
	if err != nil {
		logger.Logger.Fatal("初始化存储失败", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeStorage()

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	sessions := session.NewManager(provider, client, settings.OptionsFromConfig(&cfg.UI), cfg.Credentials.RegistrarAPIURL)
	sessions.SetLimits(session.Limits{IdleTimeout: cfg.Session.IdleTimeout, MaxSessions: cfg.Session.MaxSessions})
	sessions.StartSweeper(cfg.Session.SweepInterval)
	defer sessions.Close()

	r := router.SetupRouter(sessions)
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Logger.Info("Server is running on ", zap.String("addr", addr), zap.String("backend", cfg.Backend.BaseURL))

	if err = r.Run(addr); err != nil {
		logger.Logger.Error("Server is shutting down", zap.Error(err))
	}
}
