package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/cahcet/eloquence-api/docs"
	v1 "github.com/cahcet/eloquence-api/internal/api/handler/v1"
	"github.com/cahcet/eloquence-api/internal/api/middleware"
	"github.com/cahcet/eloquence-api/internal/catalogue"
	"github.com/cahcet/eloquence-api/internal/config"
	"github.com/cahcet/eloquence-api/internal/repository"
	"github.com/cahcet/eloquence-api/internal/repository/dao"
	"github.com/cahcet/eloquence-api/internal/service"
)

// multipartOverhead is the allowance for the non-file parts of a submission.
const multipartOverhead = 1 << 20

// Stores are the non-relational collaborators the handlers need.
type Stores struct {
	Catalogue *catalogue.Store
	Blobs     service.BlobStore
	// EventIDs is optional; nil sends every slug lookup to postgres.
	EventIDs repository.EventIDCache
}

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
	Feed   *v1.FeedHandler
}

func NewServer(conf *config.AppConfig, db *gorm.DB, stores Stores) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
		Feed:   v1.NewFeedHandler(conf.API.AllowedCORSDomains),
	}

	s.MountMiddlewares()

	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db), stores.EventIDs)
	registrationRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))

	registrationHandler := s.initRegistrationHandler(registrationRepo, eventRepo, stores)
	adminHandler := s.initAdminHandler(registrationRepo, eventRepo)
	eventHandler := v1.NewEventHandler(stores.Catalogue, conf.Payment.PayeeVPA)
	s.MountHandlers(registrationHandler, eventHandler, adminHandler)

	return s
}

func (s *Server) initRegistrationHandler(repo *repository.RegistrationRepository, events *repository.EventRepository, stores Stores) *v1.RegistrationHandler {
	svc := service.NewRegistrationService(repo, events, stores.Blobs, stores.Catalogue, s.Feed, service.RegistrationOptions{
		KeyPrefix:        s.Config.R2.KeyPrefix,
		StrictValidation: s.Config.Registration.StrictValidation,
		Transactional:    s.Config.Registration.Transactional,
	})
	handler := v1.NewRegistrationHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initAdminHandler(repo *repository.RegistrationRepository, events *repository.EventRepository) *v1.AdminHandler {
	svc := service.NewAdminService(s.Config.Admin.PasswordHash, s.Config.API.JWTSigningKey, s.Config.API.TokenTTL, events, repo)
	handler := v1.NewAdminHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(registrationHandler *v1.RegistrationHandler, eventHandler *v1.EventHandler, adminHandler *v1.AdminHandler) {
	const basePath = "/api"

	public := s.Router.Group(basePath)
	{
		public.POST("/register", middleware.BodyLimit(s.Config.API.MaxUploadBytes+multipartOverhead), registrationHandler.HandleSubmitRegistration)
		public.GET("/events", eventHandler.HandleListEvents)
		public.GET("/events/:id", eventHandler.HandleGetEvent)
		public.POST("/login", adminHandler.HandleLogin)
	}

	admin := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		admin.GET("/registrations/stream", s.Feed.HandleStream)
		admin.GET("/registrations/:eventName", adminHandler.HandleGetRegistrations)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Eloquence registration API"
	docs.SwaggerInfo.Description = "Event catalogue, registration submission and admin review."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
