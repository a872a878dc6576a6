package handler

import (
	"net/http"

	"github.com/domain-cutover/internal/api/middleware"
	"github.com/domain-cutover/internal/api/response"
	"github.com/domain-cutover/internal/state"
	"github.com/gin-gonic/gin"
)

// State 返回当前会话的状态快照, 密钥已脱敏; 没有会话时返回空快照
func State(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		response.Ok(c, state.Snapshot{Banners: map[state.Slot]state.Banner{}})
		return
	}
	response.Ok(c, sess.State.Snapshot())
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
