package handler

import (
	"net/http"

	"github.com/domain-cutover/internal/api/dto"
	"github.com/domain-cutover/internal/api/middleware"
	"github.com/domain-cutover/internal/api/response"
	"github.com/domain-cutover/internal/api/view"
	"github.com/domain-cutover/internal/session"
	"github.com/gin-gonic/gin"
)

// SettingsHandler 负责独立的设置页面 /settings
type SettingsHandler struct{}

func NewSettingsHandler() *SettingsHandler {
	return &SettingsHandler{}
}

func (h *SettingsHandler) Show(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	sess.Settings.Load(detached(c))
	renderSettings(c, sess, false)
}

// Save 保存成功后页面会在 1.5 秒后跳回控制台
func (h *SettingsHandler) Save(c *gin.Context) {
	var form dto.SettingsForm
	if err := c.ShouldBind(&form); err != nil {
		response.BadRequest(c, "", err)
		return
	}
	sess := middleware.CurrentSession(c)
	err := sess.Settings.Save(detached(c), sess.Settings.Options().Page, form.Credentials())
	if err != nil {
		recordError(c, err)
	}
	renderSettings(c, sess, err == nil)
}

func renderSettings(c *gin.Context, sess *session.Session, redirect bool) {
	site := sess.Settings.Options().Page
	b, ok := sess.State.Banner(site.Slot)
	c.HTML(http.StatusOK, view.SettingsTemplate, view.SettingsPage{
		Form:                sess.State.Form(),
		Banner:              view.NewBanner(b, ok, site.BannerTTL, "alert alert-success", "alert alert-error"),
		DefaultRegistrarURL: sess.Credentials.DefaultRegistrarAPIURL(),
		RedactAfterMS:       view.RedactAfter(sess.State.RedactPending(), sess.Settings.Options().RedactDelay),
		RedirectAfterMS:     redirectAfter(redirect),
	})
}

func redirectAfter(redirect bool) int64 {
	if !redirect {
		return 0
	}
	return view.SettingsRedirectDelay.Milliseconds()
}
