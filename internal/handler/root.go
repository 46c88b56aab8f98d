package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userapi/internal/models"
)

const greetingPage = `<html>
  <head>
    <title> Mundão do HTML! </title>
  </head>
  <body>
    <h1> Olá, Mundão do HTML! </h1>
  </body>
</html>`

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func Root(c *gin.Context) {
	c.JSON(http.StatusOK, models.Message{Message: "Olá, Mundão!"})
}

func HTMLPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(greetingPage))
}

// Health reports whether the database answers within a short deadline.
func Health(db Pinger, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		now := time.Now().UTC().Format(time.RFC3339)
		if err := db.PingContext(ctx); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "time": now})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": now})
	}
}
