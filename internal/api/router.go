package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/attend/internal/api/handlers"
	"github.com/your-org/attend/internal/api/ws"
	"github.com/your-org/attend/internal/auth"
	"github.com/your-org/attend/internal/queue"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
)

type RouterConfig struct {
	APIKey      string
	Coordinator *recognition.Coordinator
	Roster      recognition.Roster
	Photos      *storage.MinIOStore
	Producer    *queue.Producer
	Hub         *ws.Hub
	Checks      map[string]handlers.Pinger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Checks)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// Live attendance feed
	if cfg.Hub != nil {
		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	// Students
	studentH := handlers.NewStudentHandler(cfg.Coordinator, cfg.Roster, cfg.Photos)
	v1.POST("/students", studentH.Enroll)
	v1.GET("/students", studentH.List)
	v1.GET("/students/:key", studentH.Get)
	v1.GET("/students/:key/photo", studentH.Photo)

	// Recognition & attendance
	attendanceH := handlers.NewAttendanceHandler(cfg.Coordinator, cfg.Producer)
	v1.POST("/recognize", attendanceH.Recognize)
	v1.GET("/students/:key/attendance", attendanceH.ListForStudent)
	v1.GET("/attendance", attendanceH.CurrentWindow)

	return r
}
