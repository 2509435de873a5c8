package fail

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type Response struct {
	Message string `json:"message"`
}

func Fail(c echo.Context, status int, format string, args ...interface{}) error {
	message := fmt.Sprintf(format, args...)

	zap.L().Warn(message,
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
		zap.Int("status_code", status),
	)

	return c.JSON(status, &Response{
		Message: message,
	})
}
