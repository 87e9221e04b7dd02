package routes

import (
	adminapi "course-studio/internal/api/admin"
	authapi "course-studio/internal/api/auth"
	contentapi "course-studio/internal/api/content"
	coursesapi "course-studio/internal/api/courses"
	subjectsapi "course-studio/internal/api/subjects"
	"course-studio/internal/api/users"
	"course-studio/internal/app/http/middleware"
	"course-studio/internal/domain/access"
	"course-studio/internal/infra/storage"
	"course-studio/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// formOverhead leaves room for the multipart envelope and the non-file
// fields on top of the upload cap.
const formOverhead = 1 << 20

type Deps struct {
	DB             *gorm.DB
	Store          storage.Store
	Log            *logger.Logger
	JWTSecret      string
	MaxUploadBytes int64
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := authapi.NewHandler(d.DB, d.JWTSecret, d.Log)
	me := users.NewHandler(d.DB, d.Log)
	subjects := subjectsapi.NewHandler(d.DB, d.Log)
	admin := adminapi.NewHandler(d.DB, d.Log)
	course := coursesapi.NewHandler(d.DB, d.Store, d.Log)
	content := contentapi.NewHandler(d.DB, d.Store, d.Log, d.MaxUploadBytes)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Input sanitization applies to public routes only
	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.POST("/register", auth.Register)
	public.POST("/login", auth.Login)

	// Authenticated
	authed := r.Group("/")
	authed.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireActiveUser(d.DB))
	authed.GET("/me", me.GetCurrentUser)
	authed.POST("/change-password", auth.ChangePassword)
	authed.GET("/subjects", subjects.List)

	perm := middleware.RequirePermission
	c := authed.Group("/courses")
	c.GET("/mine/", perm(access.PermViewCourse), course.Mine)
	c.GET("/create/", perm(access.PermAddCourse), course.Create)
	c.POST("/create/", perm(access.PermAddCourse), course.Create)
	c.GET("/:course/edit/", perm(access.PermChangeCourse), course.Edit)
	c.POST("/:course/edit/", perm(access.PermChangeCourse), course.Edit)
	c.POST("/:course/delete/", perm(access.PermDeleteCourse), course.Delete)
	c.GET("/:course/module/", perm(access.PermChangeCourse), course.Modules)
	c.POST("/:course/module/", perm(access.PermChangeCourse), course.Modules)
	c.POST("/module/order/", perm(access.PermChangeCourse), course.Reorder)

	c.GET("/module/:module_id/", perm(access.PermViewCourse), content.List)
	limit := middleware.LimitBody(0)
	if d.MaxUploadBytes > 0 {
		limit = middleware.LimitBody(d.MaxUploadBytes + formOverhead)
	}
	c.GET("/module/:module_id/content/:type/create/", perm(access.PermManageContent), content.Create)
	c.POST("/module/:module_id/content/:type/create/", perm(access.PermManageContent), limit, content.Create)
	c.GET("/module/:module_id/content/:type/:id/", perm(access.PermManageContent), content.Update)
	c.POST("/module/:module_id/content/:type/:id/", perm(access.PermManageContent), limit, content.Update)
	c.POST("/content/:id/delete/", perm(access.PermManageContent), content.Delete)
	c.POST("/content/order/", perm(access.PermManageContent), content.Reorder)

	// Admin routes
	a := r.Group("/admin")
	a.Use(middleware.AuthMiddleware(d.JWTSecret), middleware.RequireActiveUser(d.DB), perm(access.PermManageUsers))
	a.GET("/dashboard", admin.AdminDashboard)
	a.GET("/users", admin.ListAllUsers)
	a.GET("/user/:id", admin.GetUserDetails)
	a.PUT("/user/:id/role", admin.UpdateUserRole)
	a.POST("/subjects", perm(access.PermManageSubjects), admin.CreateSubject)
	a.PUT("/subjects/:id", perm(access.PermManageSubjects), admin.UpdateSubject)
}
