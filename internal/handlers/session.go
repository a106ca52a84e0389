package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/printeasy-orderflow/internal/intake"
	"github.com/imrishuroy/printeasy-orderflow/internal/session"
)

const (
	sessionKey = "session"
	cookiesKey = "cookies"
)

// cookieJar starts sessions on demand and writes the cookies that name them.
type cookieJar struct {
	manager *session.Manager
	secure  bool
}

func (j *cookieJar) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", j.secure, true)
}

// Sessions attaches the live session named by the cookie, if any. Requests
// without one stay sessionless until a handler has something to keep.
func Sessions(m *session.Manager, secure bool) gin.HandlerFunc {
	jar := &cookieJar{manager: m, secure: secure}
	return func(c *gin.Context) {
		c.Set(cookiesKey, jar)
		if id, err := c.Cookie(session.CookieName); err == nil {
			if sess, ok := m.Get(id); ok {
				c.Set(sessionKey, sess)
			}
		}
		c.Next()
	}
}

func cookies(c *gin.Context) *cookieJar {
	return c.MustGet(cookiesKey).(*cookieJar)
}

// currentSession returns the request's session or nil.
func currentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(*session.Session)
	}
	return nil
}

// ensureSession returns the request's session, starting one and setting its
// cookie when there is none.
func ensureSession(c *gin.Context) *session.Session {
	if sess := currentSession(c); sess != nil {
		return sess
	}
	jar := cookies(c)
	sess := jar.manager.Start()
	jar.set(c, session.CookieName, sess.ID, 0)
	c.Set(sessionKey, sess)
	return sess
}

// existingCache is the session as a page cache, or nil without one.
func existingCache(c *gin.Context) intake.PageCache {
	if sess := currentSession(c); sess != nil {
		return sess
	}
	return nil
}

// lazyCache reads the session if there is one and starts it on first write.
type lazyCache struct{ c *gin.Context }

func (l lazyCache) PageCount(h string) (int, bool) {
	if sess := currentSession(l.c); sess != nil {
		return sess.PageCount(h)
	}
	return 0, false
}

func (l lazyCache) RememberPageCount(h string, n int) {
	ensureSession(l.c).RememberPageCount(h, n)
}

// RegisterSessionRoutes exposes DELETE /api/session, which drops the session,
// everything cached in it and the admin token.
func RegisterSessionRoutes(r gin.IRoutes) {
	r.DELETE("/api/session", func(c *gin.Context) {
		if sess := currentSession(c); sess != nil {
			cookies(c).manager.End(sess.ID)
		}
		jar := cookies(c)
		jar.set(c, session.CookieName, "", -1)
		jar.set(c, session.AdminCookieName, "", -1)
		c.Status(http.StatusNoContent)
	})
}
