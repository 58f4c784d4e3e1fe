package api

import (
	"caseflow/internal/api/handler"
	"caseflow/internal/core/ports"
	"caseflow/internal/metrics"
	"caseflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the HTTP surface. All business routes live under /api/v1
// and require a resolved actor; /healthz and /metrics are open.
func NewRouter(
	mode string,
	workflow *service.WorkflowService,
	tasks *service.TaskService,
	refs ports.ReferenceRepository,
	users ports.UserRepository,
	notifications ports.NotificationRepository,
	perms ports.PermissionChecker,
) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	expedienteHandler := handler.NewExpedienteHandler(workflow, perms)
	taskHandler := handler.NewTaskHandler(tasks, perms)
	referenceHandler := handler.NewReferenceHandler(refs)
	notificationHandler := handler.NewNotificationHandler(notifications)

	v1 := r.Group("/api/v1")
	v1.Use(handler.ActorMiddleware(users))
	{
		expedientes := v1.Group("/expedientes")
		{
			expedientes.POST("", expedienteHandler.Create)
			expedientes.GET("", expedienteHandler.List)
			expedientes.GET("/analytics", expedienteHandler.Analytics)
			expedientes.GET("/:id", expedienteHandler.Get)
			expedientes.DELETE("/:id", expedienteHandler.Delete)
			expedientes.POST("/:id/transition", expedienteHandler.Transition)
			expedientes.GET("/:id/history", expedienteHandler.History)
			expedientes.GET("/:id/workflow-context", expedienteHandler.Context)
			expedientes.GET("/:id/next-states", expedienteHandler.NextStates)
			expedientes.GET("/:id/next-departments", expedienteHandler.NextDepartments)
			expedientes.GET("/:id/tasks", taskHandler.ListByExpediente)
		}

		tasksGroup := v1.Group("/tasks")
		{
			tasksGroup.POST("", taskHandler.Create)
			tasksGroup.GET("/my", taskHandler.MyTasks)
			tasksGroup.GET("/:id", taskHandler.Get)
			tasksGroup.POST("/:id/dependencies", taskHandler.AddDependency)
			tasksGroup.GET("/:id/dependencies", taskHandler.Dependencies)
			tasksGroup.GET("/:id/dependents", taskHandler.Dependents)
			tasksGroup.GET("/:id/can-start", taskHandler.CanStart)
			tasksGroup.POST("/:id/start", taskHandler.Start)
			tasksGroup.POST("/:id/cancel", taskHandler.Cancel)
			tasksGroup.POST("/:id/assign", taskHandler.Assign)
			tasksGroup.POST("/:id/complete", taskHandler.Complete)
		}

		v1.GET("/states", referenceHandler.ListStates)
		v1.GET("/departments", referenceHandler.ListDepartments)
		v1.GET("/departments/:id/statistics", expedienteHandler.DepartmentStatistics)

		v1.GET("/notifications", notificationHandler.List)
		v1.POST("/notifications/:id/read", notificationHandler.MarkRead)
	}

	return r
}
