package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaryd-hermann/dateful/internal/config"
	"github.com/jaryd-hermann/dateful/internal/handlers"
	"github.com/jaryd-hermann/dateful/internal/middleware"
	"github.com/jaryd-hermann/dateful/internal/repository"
	"github.com/jaryd-hermann/dateful/internal/services"
	chatws "github.com/jaryd-hermann/dateful/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	coupleRepo := repository.NewCoupleRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)

	var smsService services.SMSService
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioPhoneNumber != "" {
		smsService = services.NewTwilioSMSService(
			cfg.TwilioAccountSID,
			cfg.TwilioAuthToken,
			cfg.TwilioPhoneNumber,
		)
	}

	var completionService services.CompletionService
	if cfg.OpenAIAPIKey != "" {
		completionService = services.NewOpenAICompletionService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	otpService := services.NewOTPService(otpRepo, userRepo, smsService)
	assistantService := services.NewAssistantService(userRepo, coupleRepo, conversationRepo, completionService)
	onboardingService := services.NewOnboardingService(db, userRepo, smsService, cfg.AppURL)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	authHandler := handlers.NewAuthHandler(otpService, userRepo, coupleRepo, cfg.JWTSecret)
	onboardingHandler := handlers.NewOnboardingHandler(onboardingService)
	chatHandler := handlers.NewChatHandler(assistantService, userRepo, conversationRepo, chatHub, cfg.JWTSecret)
	smsHandler := handlers.NewSMSHandler(assistantService, smsService)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistRepo)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/otp/send", authHandler.SendOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	onboarding := api.Group("/onboarding", middleware.AuthRequired(cfg.JWTSecret))
	onboarding.Get("/questions", onboardingHandler.Questions)
	onboarding.Post("/step", onboardingHandler.Step)
	onboarding.Post("/back", onboardingHandler.Back)
	onboarding.Post("/names", onboardingHandler.EditNames)
	onboarding.Post("/complete", onboardingHandler.Complete)

	chat := api.Group("/chat", middleware.AuthRequired(cfg.JWTSecret))
	chat.Post("/message", chatHandler.SendMessage)
	chat.Get("/history", chatHandler.GetHistory)

	waitlist := api.Group("/waitlist")
	waitlist.Post("", waitlistHandler.Join)
	waitlist.Patch("", waitlistHandler.Update)

	app.Post("/webhooks/twilio/inbound", smsHandler.Inbound)

	api.Use("/chat/ws", chatHandler.WebSocketAuth)
	api.Get("/chat/ws", websocket.New(chatHandler.HandleWebSocket))
}
