package regionalsync

import (
	"github.com/gin-gonic/gin"
)

func newTestRouter(s *Syncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandlers(s).RegisterRoutes(router)
	return router
}
