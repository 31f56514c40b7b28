package controller

import (
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-blog-search/internal/web/blog/model"
)

const bearerPrefix = "Bearer "

// bearerToken extract token from the Authorization header
func bearerToken(header string) (string, error) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", errors.New("missing bearer token")
	}

	return strings.TrimSpace(header[len(bearerPrefix):]), nil
}

// Auth require a valid author token and load its user
func (c *Blog) Auth(ctx *gin.Context) {
	logger := gmw.GetLogger(ctx)

	token, err := bearerToken(ctx.GetHeader("Authorization"))
	if err != nil {
		abortWithError(ctx, http.StatusUnauthorized, "login required")
		return
	}

	claims, err := c.jwt.Parse(token)
	if err != nil {
		logger.Debug("invalid token", zap.Error(err))
		abortWithError(ctx, http.StatusUnauthorized, "invalid token")
		return
	}

	uid, err := claims.UserID()
	if err != nil {
		abortWithError(ctx, http.StatusUnauthorized, "invalid token")
		return
	}

	user, err := c.posts.LoadUserByID(ctx, uid)
	if err != nil {
		logger.Warn("load token user", zap.Uint("uid", uid), zap.Error(err))
		abortWithError(ctx, http.StatusUnauthorized, "invalid token")
		return
	}

	ctx.Set(ctxKeyUser, user)
	ctx.Next()
}

func currentUser(ctx *gin.Context) (*model.User, bool) {
	v, ok := ctx.Get(ctxKeyUser)
	if !ok {
		return nil, false
	}

	user, ok := v.(*model.User)
	return user, ok && user != nil
}
