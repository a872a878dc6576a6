package handler

import (
	"context"
	"net/http"

	"github.com/domain-cutover/internal/api/dto"
	"github.com/domain-cutover/internal/api/middleware"
	"github.com/domain-cutover/internal/api/response"
	"github.com/domain-cutover/internal/api/validator"
	"github.com/domain-cutover/internal/api/view"
	"github.com/domain-cutover/internal/session"
	"github.com/domain-cutover/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ConsoleHandler 负责主页面: 输入域名和 IP, 触发各个步骤
type ConsoleHandler struct{}

func NewConsoleHandler() *ConsoleHandler {
	return &ConsoleHandler{}
}

// Index 加载设置后渲染控制台
func (h *ConsoleHandler) Index(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.Settings.Load(detached(c))
	renderConsole(c, sess)
}

// RunStage 执行 /stage/:n
func (h *ConsoleHandler) RunStage(c *gin.Context) {
	stage, err := validator.ValidateStageParam(c.Param("n"))
	if err != nil {
		response.NotFound(c, err)
		return
	}
	var form dto.StageForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "", err)
		return
	}

	sess := middleware.CurrentSession(c)
	sess.State.SetInput(form.Domains, form.IPAddress)
	if _, err := sess.Runner.RunStage(detached(c), stage); err != nil {
		recordError(c, err)
	}
	renderConsole(c, sess)
}

// RunAll 执行 /run-all
func (h *ConsoleHandler) RunAll(c *gin.Context) {
	var form dto.StageForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "", err)
		return
	}

	sess := middleware.CurrentSession(c)
	sess.State.SetInput(form.Domains, form.IPAddress)
	if _, err := sess.Runner.RunAllStages(detached(c)); err != nil {
		recordError(c, err)
	}
	renderConsole(c, sess)
}

// SaveSettings 处理控制台中的设置表单
func (h *ConsoleHandler) SaveSettings(c *gin.Context) {
	var form dto.SettingsForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "", err)
		return
	}
	sess := middleware.CurrentSession(c)
	if err := sess.Settings.Save(detached(c), sess.Settings.Options().Console, form.Credentials()); err != nil {
		recordError(c, err)
	}
	renderConsole(c, sess)
}

func renderConsole(c *gin.Context, sess *session.Session) {
	site := sess.Settings.Options().Console
	b, ok := sess.State.Banner(site.Slot)
	c.HTML(http.StatusOK, view.ConsoleTemplate, view.ConsolePage{
		Form:                sess.State.Form(),
		Results:             sess.State.Results(),
		SettingsBanner:      view.NewBanner(b, ok, site.BannerTTL, "success-message", "error-message"),
		DefaultRegistrarURL: sess.Credentials.DefaultRegistrarAPIURL(),
		RedactAfterMS:       view.RedactAfter(sess.State.RedactPending(), sess.Settings.Options().RedactDelay),
		Stages:              view.StageButtons(),
	})
}

// detached 返回不随浏览器断开而取消的上下文: 已发出的后端请求总是完成
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// recordError 把业务错误记到 gin 上下文, 由日志中间件输出; 页面本身已经展示了错误
func recordError(c *gin.Context, err error) {
	c.Error(err).SetType(gin.ErrorTypePrivate)
	logger.Logger.Debug("操作未完成", zap.String("path", c.Request.URL.Path), zap.Error(err))
}
