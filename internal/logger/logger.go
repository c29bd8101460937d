package logger

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// New builds the process logger for the given gin mode
func New(mode string) (*zap.Logger, error) {
	switch mode {
	case gin.ReleaseMode:
		return zap.NewProduction()
	case gin.TestMode:
		return zap.NewNop(), nil
	default:
		return zap.NewDevelopment()
	}
}
