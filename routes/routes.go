package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	config "github.com/huddle/eventify-go/config"
	controllers "github.com/huddle/eventify-go/controllers"
	middleware "github.com/huddle/eventify-go/middleware"
	models "github.com/huddle/eventify-go/models"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// public
	r.POST("/auth/register", controllers.Register(cfg))
	r.POST("/auth/login", controllers.Login(cfg))
	r.POST("/auth/google", controllers.GoogleAuth(cfg))
	r.GET("/auth/check-username/:username", controllers.CheckUsername(cfg))

	auth := middleware.AuthMiddleware(cfg)
	r.GET("/auth/me", auth, controllers.Me(cfg))

	api := r.Group("/api")

	users := api.Group("/users")
	users.Use(auth)
	{
		users.GET("/:id", controllers.GetUser(cfg))
		users.PATCH("/:id", controllers.UpdateUser(cfg))
		users.DELETE("/:id", controllers.DeactivateUser(cfg))
	}

	teams := api.Group("/teams")
	teams.Use(auth)
	{
		teams.POST("", controllers.CreateTeam(cfg))
		teams.GET("", controllers.ListTeams(cfg))
		teams.GET("/:id", controllers.GetTeam(cfg))
		teams.PATCH("/:id", controllers.UpdateTeam(cfg))
		teams.DELETE("/:id", controllers.DeleteTeam(cfg))
		teams.POST("/:id/members", controllers.AddTeamMember(cfg))
		teams.DELETE("/:id/members/:userId", controllers.RemoveTeamMember(cfg))
	}

	invites := api.Group("/invites")
	{
		// Token preview and register-and-join are reachable before login.
		invites.GET("/:token", controllers.GetInviteByToken(cfg))
		invites.POST("/:token/join", controllers.JoinWithInvite(cfg))

		invites.POST("/teams/:teamId/invite", auth, controllers.CreateInvite(cfg))
		invites.GET("/teams/:teamId", auth, controllers.ListTeamInvites(cfg))
		invites.POST("/:token/accept", auth, controllers.AcceptInvite(cfg))
		invites.DELETE("/:id", auth, controllers.WithdrawInvite(cfg))
	}

	notifs := api.Group("/notifications")
	notifs.Use(auth)
	{
		notifs.GET("", controllers.ListNotifications(cfg))
		notifs.PATCH("/:id/read", controllers.MarkNotificationRead(cfg))
		notifs.POST("/:id/accept", controllers.AcceptNotification(cfg))
		notifs.POST("/:id/decline", controllers.DeclineNotification(cfg))
	}

	events := api.Group("/events")
	events.Use(auth)
	{
		events.POST("", middleware.RequireRoles(models.RoleOrganizer, models.RoleAdmin), controllers.CreateEvent(cfg))
		events.GET("", controllers.ListEvents(cfg))
		events.GET("/:id", controllers.GetEvent(cfg))
		events.PATCH("/:id", controllers.UpdateEvent(cfg))
		events.DELETE("/:id", controllers.DeleteEvent(cfg))
		events.POST("/:id/join", controllers.JoinEvent(cfg))
		events.POST("/:id/leave", controllers.LeaveEvent(cfg))
	}

	otp := api.Group("/otp")
	{
		otp.POST("/send", controllers.SendOTP(cfg))
		otp.POST("/verify", controllers.VerifyOTP(cfg))
		otp.POST("/resend", controllers.ResendOTP(cfg))
	}

	payments := api.Group("/payments")
	payments.Use(auth)
	{
		payments.POST("/create-payment", controllers.CreatePayment(cfg))
		payments.GET("", controllers.ListPayments(cfg))
		payments.GET("/:id", controllers.GetPayment(cfg))
	}

	admin := api.Group("/admin")
	admin.Use(auth, middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", controllers.ListUsers(cfg))
		admin.PATCH("/users/:id/role", controllers.UpdateUserRole(cfg))
		admin.POST("/users/:id/verify-organizer", controllers.VerifyOrganizer(cfg))
		admin.DELETE("/users/:id", controllers.AdminDeleteUser(cfg))
		admin.GET("/events/pending", controllers.ListPendingEvents(cfg))
		admin.POST("/events/:id/approve", controllers.ApproveEvent(cfg))
		admin.POST("/events/:id/reject", controllers.RejectEvent(cfg))
	}
}
