package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"contest-bot/internal/common/errors"
	"contest-bot/internal/common/logger"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"
	userKey        = "user"
	userIDKey      = "user_id"
)

// TelegramInitData authenticates Mini App requests. Init data is read from
// the X-Telegram-Init-Data header, then the init_data query parameter.
// expIn of zero disables the expiry check.
func TelegramInitData(token string, expIn time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			sendErrorResponse(c, errors.New(errors.ErrCodeInternal, "init data validation is not configured"))
			return
		}

		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			raw = c.Query("init_data")
		}
		if raw == "" {
			sendErrorResponse(c, errors.NewUnauthorizedError("telegram init data required"))
			return
		}

		if err := initdata.Validate(raw, token, expIn); err != nil {
			logger.Debug().Err(err).Msg("Init data validation failed")
			sendErrorResponse(c, errors.NewUnauthorizedError("invalid init data"))
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			sendErrorResponse(c, errors.NewValidationError("init_data", "malformed init data"))
			return
		}
		if parsed.User.ID == 0 {
			sendErrorResponse(c, errors.NewUnauthorizedError("init data carries no user"))
			return
		}

		c.Set(userKey, parsed.User)
		c.Set(userIDKey, parsed.User.ID)
		c.Next()
	}
}

// UserID returns the authenticated Telegram user id.
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
