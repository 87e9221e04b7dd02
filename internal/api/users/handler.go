package users

import (
	"net/http"

	"course-studio/internal/domain/access"
	"course-studio/internal/domain/users"
	"course-studio/internal/platform/apierr"
	"course-studio/internal/platform/logger"
	"course-studio/internal/platform/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handler struct {
	DB  *gorm.DB
	Log *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{DB: db, Log: log}
}

func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var user users.User
	if err := db.First(&user, userID).Error; err != nil {
		response.Error(c, h.Log, apierr.FromDB(err, "user"))
		return
	}

	policy := access.For(user.ID)
	var stats StatsDTO
	if err := policy.Courses(db).Count(&stats.Courses).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}
	if err := policy.Modules(db).Count(&stats.Modules).Error; err != nil {
		response.Error(c, h.Log, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User: UserDTO{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
		Access: AccessDTO{Capabilities: access.CapabilitiesFor(user.Role)},
		Stats:  stats,
	})
}
