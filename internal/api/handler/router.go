package handler

import (
	"net/http"

	"titlehub/internal/api/middleware"
	"titlehub/internal/api/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Category *CategoryHandler
	Genre    *GenreHandler
	Title    *TitleHandler
	Review   *ReviewHandler
	Comment  *CommentHandler
}

// NewRouter assembles the versioned API surface. authLimiter may be nil
// (tests); authService backs the bearer-token middleware shared by every
// protected route.
func NewRouter(authService service.AuthService, h Handlers, authLimiter gin.HandlerFunc) *gin.Engine {
	r := gin.Default()
	// unsupported verbs (PUT on any collection) get a 405, not a 404
	r.HandleMethodNotAllowed = true

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(authService)

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		if authLimiter != nil {
			authGroup.Use(authLimiter)
		}
		h.Auth.RegisterRoutes(authGroup)

		h.User.RegisterRoutes(v1.Group("/users"), auth)
		h.Category.RegisterRoutes(v1.Group("/categories"), auth)
		h.Genre.RegisterRoutes(v1.Group("/genres"), auth)

		titles := v1.Group("/titles")
		h.Title.RegisterRoutes(titles, auth)
		h.Review.RegisterRoutes(titles, auth)
		h.Comment.RegisterRoutes(titles, auth)
	}

	return r
}
