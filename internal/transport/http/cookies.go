package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// setTokenCookies выставляет HttpOnly-cookie accessToken/refreshToken со
// сроками жизни из конфига. SameSite=Lax — достаточный режим для
// same-site фронтенда; домен и Secure берутся из конфига.
func (s *Server) setTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteLaxMode)

	c.SetCookie(accessTokenCookie, accessToken,
		int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		"/", s.cfg.Auth.CookieDomain, s.cfg.Auth.CookieSecure, true)

	c.SetCookie(refreshTokenCookie, refreshToken,
		int(s.cfg.Auth.RefreshTokenTTL.Seconds()),
		"/", s.cfg.Auth.CookieDomain, s.cfg.Auth.CookieSecure, true)
}

// clearTokenCookies удаляет обе токен-cookie (MaxAge < 0).
func (s *Server) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)

	c.SetCookie(accessTokenCookie, "", -1, "/", s.cfg.Auth.CookieDomain, s.cfg.Auth.CookieSecure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", s.cfg.Auth.CookieDomain, s.cfg.Auth.CookieSecure, true)
}
