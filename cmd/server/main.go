package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yukikurage/party-planner-api/internal/config"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/database"
	"github.com/yukikurage/party-planner-api/internal/handlers"
	"github.com/yukikurage/party-planner-api/internal/logging"
	"github.com/yukikurage/party-planner-api/internal/middleware"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/notify"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/services"
	"github.com/yukikurage/party-planner-api/internal/token"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(database.GetDB()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	repos := repository.New(database.GetDB())
	settings := services.SettingsFromConfig(cfg)

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(logging.Component("http")))
	r.Use(sessions.Sessions(constants.SessionCookieName, newSessionStore(cfg)))

	var redisClient *redis.Client
	if cfg.RedisHost != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisHost + ":" + cfg.RedisPort})
	}

	// Notification channels; senders without credentials fall back to logging
	router := notify.NewRouter(logging.Component("notify"))
	if cfg.SendGridAPIKey != "" {
		router.Register(models.ChannelEmail, notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailSenderAddress, cfg.EmailSenderName))
	} else {
		router.Register(models.ChannelEmail, notify.NewLogSender(logging.Component("email")))
	}
	if cfg.SMSConfigured() {
		router.Register(models.ChannelSMS, notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber))
	}

	codec := token.NewCodec(cfg.SessionSecret)

	// Initialize services
	notificationService := services.NewNotificationService(repos.Notifications, router, logging.Component("notifications"))
	directoryService := services.NewDirectoryService(repos)
	tagService := services.NewTagService(repos)
	eventService := services.NewEventService(repos, settings, logging.Component("events"))
	invitationService := services.NewInvitationService(repos, codec, notificationService, settings, logging.Component("invitations"))
	rsvpService := services.NewRSVPService(repos, notificationService, settings, logging.Component("rsvp"))
	referralService := services.NewReferralService(repos, codec, notificationService, directoryService, settings, logging.Component("referrals"))
	accessService := services.NewAccessService(repos, eventService, invitationService, referralService)
	potluckService := services.NewPotluckService(repos, services.NewAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel), logging.Component("potluck"))
	wallService := services.NewMessageWallService(repos)
	authService := services.NewAuthService(repos, notificationService, newAuthLimiter(redisClient, repos, settings), settings, logging.Component("auth"))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	directoryHandler := handlers.NewDirectoryHandler(directoryService, tagService)
	eventHandler := handlers.NewEventHandler(eventService, rsvpService, referralService, notificationService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, rsvpService, eventService)
	guestHandler := handlers.NewGuestHandler(rsvpService, referralService, directoryService)
	potluckHandler := handlers.NewPotluckHandler(potluckService)
	wallHandler := handlers.NewWallHandler(wallService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": cfg.AppName + " is running",
		})
	})

	// Emailed sign-in links land here directly
	r.GET("/auth/magic/:token", authHandler.VerifyMagicLink)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentPerson)
			auth.POST("/magic-link", authHandler.RequestMagicLink)
			auth.POST("/magic/:token", authHandler.VerifyMagicLink)
			auth.POST("/password-reset", authHandler.RequestPasswordReset)
			auth.POST("/reset/:token", authHandler.ResetPassword)
		}

		// Directory routes (protected)
		directory := api.Group("")
		directory.Use(middleware.RequireAuth())
		{
			directory.GET("/persons", directoryHandler.ListPersons)
			directory.POST("/persons", directoryHandler.CreatePerson)
			directory.GET("/persons/:person_id", directoryHandler.GetPerson)
			directory.PUT("/persons/:person_id", directoryHandler.UpdatePerson)
			directory.POST("/persons/:person_id/move", directoryHandler.MovePerson)
			directory.POST("/persons/:person_id/tags", directoryHandler.AddTag)
			directory.DELETE("/persons/:person_id/tags/:tag", directoryHandler.RemoveTag)
			directory.GET("/tags", directoryHandler.SearchTags)

			directory.GET("/households", directoryHandler.ListHouseholds)
			directory.POST("/households", directoryHandler.CreateHousehold)
			directory.GET("/households/:household_id", directoryHandler.GetHousehold)
			directory.PUT("/households/:household_id", directoryHandler.UpdateHousehold)
			directory.DELETE("/households/:household_id", directoryHandler.DeleteHousehold)
			directory.POST("/households/:household_id/members", directoryHandler.AddMember)
			directory.DELETE("/households/:household_id/members/:person_id", directoryHandler.RemoveMember)
		}

		// Event routes (protected)
		events := api.Group("/events")
		events.Use(middleware.RequireAuth())
		{
			events.POST("", eventHandler.CreateEvent)
			events.GET("", eventHandler.ListEvents)
		}

		event := events.Group("/:id", middleware.RequireEventAccess(accessService))
		{
			event.GET("", eventHandler.GetEvent)
			event.GET("/potluck", potluckHandler.ListItems)
			event.GET("/potluck/mine", potluckHandler.Mine)
			event.POST("/potluck", potluckHandler.CreateItem)
			event.PATCH("/potluck/:item_id", potluckHandler.UpdateItem)
			event.PUT("/potluck/:item_id/contributors", potluckHandler.SetContributors)
			event.DELETE("/potluck/:item_id", potluckHandler.DeleteItem)
			event.POST("/potluck/:item_id/claim", potluckHandler.Claim)
			event.PATCH("/potluck/:item_id/claim", potluckHandler.UpdateClaim)
			event.DELETE("/potluck/:item_id/claim", potluckHandler.Unclaim)
			event.GET("/wall", wallHandler.List)
			event.POST("/wall", wallHandler.Post)
		}

		admin := event.Group("", middleware.RequireEventAdmin())
		{
			admin.PUT("", eventHandler.UpdateEvent)
			admin.POST("/status", eventHandler.SetStatus)
			admin.GET("/stats", eventHandler.Stats)
			admin.GET("/dietary", eventHandler.DietarySummary)
			admin.GET("/admins", eventHandler.ListAdmins)
			admin.POST("/admins", eventHandler.AddAdmin)
			admin.DELETE("/admins/:admin_id", eventHandler.RemoveAdmin)
			admin.GET("/rsvps", eventHandler.ListRSVPs)
			admin.PUT("/rsvps/:rsvp_id", eventHandler.OverrideRSVP)
			admin.GET("/pending-households", eventHandler.HouseholdsWithoutResponse)
			admin.GET("/referrals", eventHandler.ListReferrals)
			admin.POST("/referrals/:referral_id/resend", eventHandler.ResendReferral)
			admin.GET("/notifications", eventHandler.ListNotifications)
			admin.POST("/potluck/generate", potluckHandler.GenerateSuggestions)

			admin.GET("/invitations", invitationHandler.ListInvitations)
			admin.POST("/invitations", invitationHandler.CreateInvitations)
			admin.POST("/invitations/copy", invitationHandler.CopyGuestList)
			admin.GET("/invitations/stats", invitationHandler.Stats)
			admin.POST("/invitations/send", invitationHandler.Send)
			admin.POST("/invitations/:invitation_id/send", invitationHandler.SendOne)
			admin.POST("/invitations/:invitation_id/regenerate", invitationHandler.RegenerateToken)
			admin.GET("/invitations/:invitation_id/qr", invitationHandler.QRCode)
			admin.GET("/invitations/:invitation_id/rsvps", invitationHandler.HouseholdRSVPs)
			admin.GET("/persons/:person_id/link", invitationHandler.PersonLink)
		}
	}

	// Guest routes; every link type exposes the same surface
	guestLimiter := middleware.NewIPRateLimiter(60, 20)
	guestRoutes := map[string]middleware.GuestResolver{
		"/rsvp/:token":   middleware.InvitationToken(accessService),
		"/i/:short":      middleware.InvitationShortToken(accessService),
		"/p/:short":      middleware.PersonLink(accessService),
		"/friend/:token": middleware.ReferralToken(accessService),
		"/f/:short":      middleware.ReferralShortToken(accessService),
	}
	for path, resolve := range guestRoutes {
		guest := r.Group(path, guestLimiter.Middleware(), middleware.RequireGuestAccess(resolve))
		guest.GET("", guestHandler.View)
		guest.PUT("/rsvps", guestHandler.UpdateHouseholdRSVPs)
		guest.PUT("/rsvp", guestHandler.UpdateRSVP)
		guest.GET("/friends", guestHandler.ListFriends)
		guest.POST("/friends", guestHandler.InviteFriend)
		guest.DELETE("/friends/:referral_id", guestHandler.RemoveFriend)
		guest.GET("/potluck", potluckHandler.ListItems)
		guest.GET("/potluck/mine", potluckHandler.Mine)
		guest.POST("/potluck", potluckHandler.CreateItem)
		guest.PATCH("/potluck/:item_id", potluckHandler.UpdateItem)
		guest.PUT("/potluck/:item_id/contributors", potluckHandler.SetContributors)
		guest.DELETE("/potluck/:item_id", potluckHandler.DeleteItem)
		guest.POST("/potluck/:item_id/claim", potluckHandler.Claim)
		guest.PATCH("/potluck/:item_id/claim", potluckHandler.UpdateClaim)
		guest.DELETE("/potluck/:item_id/claim", potluckHandler.Unclaim)
		guest.GET("/wall", wallHandler.List)
		guest.POST("/wall", wallHandler.Post)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sweepLimiter(ctx, guestLimiter, logger)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	// Start server
	log.Info().Str("addr", cfg.ListenAddr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// newSessionStore uses redis unless SESSION_STORE=cookie.
func newSessionStore(cfg *config.Config) sessions.Store {
	var store sessions.Store
	if cfg.SessionStore != "cookie" {
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // username (empty for default user)
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create redis session store")
		}
		store = rs
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	// Configure session options based on environment
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.GinMode == "release",
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

// newAuthLimiter counts in redis when available, falling back to the token table.
func newAuthLimiter(client *redis.Client, repos *repository.Repositories, settings services.Settings) services.RateLimiter {
	dbLimiter := services.NewDBRateLimiter(repos.AuthTokens, settings.AuthTokenRateLimit)
	if client == nil {
		return dbLimiter
	}
	return services.FallbackRateLimiter{
		Primary:   services.NewRedisRateLimiter(client, settings.AuthTokenRateLimit),
		Secondary: dbLimiter,
	}
}

func sweepLimiter(ctx context.Context, limiter *middleware.IPRateLimiter, logger zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := limiter.Sweep(now); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("swept idle rate limiters")
			}
		}
	}
}
