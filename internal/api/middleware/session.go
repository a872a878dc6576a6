package middleware

import (
	"net/http"

	"github.com/domain-cutover/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie 保存浏览器会话ID
	SessionCookie = "cutover_session"

	sessionIDKey = "session_id"
	sessionKey   = "session"
	cookieMaxAge = 30 * 24 * 3600
)

// SessionMiddleware 为每个浏览器分配会话, 并把 *session.Session 放入上下文
func SessionMiddleware(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || !session.ValidID(id) {
			id = session.NewID()
		}
		// 每次请求都刷新过期时间
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, id, cookieMaxAge, "/", "", false, true)

		c.Set(sessionIDKey, id)
		c.Set(sessionKey, m.Get(id))
		c.Next()
	}
}

// LookupSession 只关联已存在的会话, 不创建会话也不下发 cookie。
// 用于只读接口, 避免没有 cookie 的客户端 (curl, 健康检查脚本) 每次请求都产生一个会话。
func LookupSession(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(SessionCookie); err == nil && session.ValidID(id) {
			if s, ok := m.Lookup(id); ok {
				c.Set(sessionIDKey, id)
				c.Set(sessionKey, s)
			}
		}
		c.Next()
	}
}

// CurrentSession 返回 SessionMiddleware 放入的会话
func CurrentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// SessionFrom 返回 LookupSession 找到的会话
func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}
