// Package router wires handlers, policy middleware and rate budgets onto
// an Echo instance. Every route's policy chain is visible here in one
// place: CORS and security headers first, then the per-route rate
// budget, then authentication and the role guard, then the handler.
package router

import (
	"database/sql"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/studio730/community-api/internal/config"
	"github.com/studio730/community-api/internal/handler"
	"github.com/studio730/community-api/internal/middleware"
	"github.com/studio730/community-api/internal/model"
	"github.com/studio730/community-api/internal/ratelimit"
	"github.com/studio730/community-api/internal/repository"
)

// Per-route rate budgets. Reads are generous, writes tight, and the two
// destructive or abuse-prone routes (reports, account deletion) get an
// hourly budget instead of a per-minute one.
const (
	budgetRecordsList   = 60 // per minute
	budgetRecordWrite   = 10 // per minute
	budgetComments      = 20 // per minute
	budgetReactions     = 30 // per minute
	budgetNotifications = 30 // per minute
	budgetGroups        = 60 // per minute
	budgetAuth          = 10 // per minute
	budgetReports       = 5  // per hour
	budgetAccountDelete = 2  // per hour
)

// Register mounts every route on e. rdb may be nil, in which case the
// response cache is disabled and the limiter runs in memory.
func Register(e *echo.Echo, cfg *config.Config, db *sql.DB, rdb *redis.Client, store ratelimit.Store) {
	users := repository.NewUserRepo(db)
	records := repository.NewRecordRepo(db)
	comments := repository.NewCommentRepo(db)
	reactions := repository.NewReactionRepo(db)
	reports := repository.NewReportRepo(db)
	notifications := repository.NewNotificationRepo(db)
	tokens := repository.NewTokenRepo(db)

	authH := handler.NewAuthHandler(*cfg, users, tokens)
	recordH := handler.NewRecordHandler(records, comments, reactions)
	commentH := handler.NewCommentHandler(comments, records, notifications)
	reactionH := handler.NewReactionHandler(reactions, records, notifications)
	reportH := handler.NewReportHandler(reports, records, comments, users)
	notificationH := handler.NewNotificationHandler(notifications)
	profileH := handler.NewProfileHandler(users, tokens)
	userH := handler.NewUserHandler(users, records, comments, reactions)
	groupH := handler.NewGroupHandler(records)
	adminUserH := handler.NewAdminUserHandler(users)
	adminReportH := handler.NewAdminReportHandler(reports, records, comments, users)
	adminStatsH := handler.NewAdminStatsHandler(users, records, comments, reactions, reports)

	e.Use(middleware.Recover())
	e.Use(middleware.SecurityHeaders(*cfg))

	cacheCfg := config.LoadCacheConfig()
	feedCache := middleware.ResponseCache(cacheCfg, rdb)
	feedHeaders := middleware.CacheControl(middleware.CacheOptions{MaxAge: 30, StaleWhileRevalidate: 30, Public: true})
	profileHeaders := middleware.CacheControl(middleware.CacheOptions{MaxAge: 120, StaleWhileRevalidate: 60, Public: true})
	groupHeaders := middleware.CacheControl(middleware.CacheOptions{MaxAge: 300, StaleWhileRevalidate: 120, Public: true})

	limit := func(name string, n int, window time.Duration) echo.MiddlewareFunc {
		return middleware.RateLimit(store, name, n, window)
	}
	member := middleware.RequireRole(users, model.RoleUser, model.RoleModerator, model.RoleAdmin)
	staff := middleware.RequireRole(users, model.RoleModerator, model.RoleAdmin)
	optionalAuth := middleware.JWTOptional(cfg.JWTSecret)
	auth := middleware.JWTAuth(cfg.JWTSecret)

	e.GET("/health", handler.Health)

	v1 := e.Group("/v1")

	// Auth. Login and register share one budget so switching endpoints
	// does not reset an attacker's window.
	authG := v1.Group("/auth", limit("auth", budgetAuth, time.Minute))
	authG.POST("/register", authH.Register)
	authG.POST("/login", authH.Login)
	authG.POST("/refresh", authH.Refresh)
	authG.POST("/logout", authH.Logout)
	authG.GET("/me", authH.Me, auth, member)

	// Public reads. Soft auth lets a signed-in viewer see their own
	// reaction state without making the routes private.
	v1.GET("/records", recordH.List, limit("records_list", budgetRecordsList, time.Minute), optionalAuth, feedHeaders, feedCache)
	v1.GET("/records/:id", recordH.Get, limit("records_list", budgetRecordsList, time.Minute), optionalAuth, feedHeaders)
	v1.GET("/users/:id", userH.Get, limit("users_public", budgetRecordsList, time.Minute), optionalAuth, profileHeaders)
	v1.GET("/groups", groupH.List, limit("groups", budgetGroups, time.Minute), groupHeaders, feedCache)

	// Authenticated member surface.
	m := v1.Group("", auth, member)
	m.POST("/records", recordH.Create, limit("records_write", budgetRecordWrite, time.Minute))
	m.PUT("/records/:id", recordH.Update, limit("records_write", budgetRecordWrite, time.Minute))
	m.POST("/comments", commentH.Create, limit("comments", budgetComments, time.Minute))
	m.PUT("/comments/:id", commentH.Update, limit("comments", budgetComments, time.Minute))
	m.POST("/reactions", reactionH.Create, limit("reactions", budgetReactions, time.Minute))
	m.DELETE("/reactions", reactionH.Delete, limit("reactions", budgetReactions, time.Minute))
	m.POST("/reports", reportH.Create, limit("reports", budgetReports, time.Hour))
	m.GET("/notifications", notificationH.List, limit("notifications", budgetNotifications, time.Minute))
	m.PUT("/notifications", notificationH.MarkRead, limit("notifications", budgetNotifications, time.Minute))
	m.GET("/profile", profileH.Get)
	m.PUT("/profile", profileH.Update)
	m.POST("/profile/delete-token", profileH.RequestDeleteToken, limit("account_delete", budgetAccountDelete, time.Hour))
	m.DELETE("/profile", profileH.Delete, limit("account_delete", budgetAccountDelete, time.Hour))

	// Moderation console.
	a := v1.Group("/admin", auth, staff)
	a.GET("/users", adminUserH.List)
	a.PUT("/users/:id", adminUserH.Update)
	a.GET("/reports", adminReportH.List)
	a.PUT("/reports/:id", adminReportH.Update)
	a.GET("/stats", adminStatsH.Get)
}
