package container

import (
	"context"
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/gigs/internal/config"
	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
	"github.com/supabase-community/supabase-go"
	"github.com/valkey-io/valkey-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Clients are the external connections the container wires together.
// MongoDB, Valkey and Cloudinary are optional.
type Clients struct {
	Supabase   *supabase.Client
	MongoDB    *mongo.Client
	Valkey     valkey.Client
	Cloudinary *cloudinary.Cloudinary
}

// Container holds all application dependencies
type Container struct {
	Logger *slog.Logger
	Config *config.Config

	SupabaseClient *supabase.Client
	MongoDBClient  *mongo.Client

	UserService       *services.UserService
	EventService      *services.EventService
	AttendanceService *services.AttendanceService
	ViewService       *services.ViewService
	TokenValidator    *helpers.TokenValidator
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, clients Clients) *Container {
	supa := models.SupabaseNewRepo(clients.Supabase, cfg.SupabaseURL, cfg.SupabaseAnonKey)

	var images models.ImageStore = models.NewSupabaseImageStore(supa, cfg.StorageBucket)
	if cfg.ImageBackend == config.ImageBackendCloudinary && clients.Cloudinary != nil {
		images = models.NewCloudinaryImageStore(clients.Cloudinary, helpers.EventsFolder)
	}

	var guard services.ToggleGuard = services.NewMemoryToggleGuard()
	if clients.Valkey != nil {
		guard = services.NewSharedToggleGuard(models.NewValkeyLocker(clients.Valkey, cfg.ToggleLockTTL), logger)
	}

	var views models.EventViewsRepo
	if clients.MongoDB != nil {
		mdb := models.MongodbNewRepo(clients.MongoDB)
		if err := mdb.EnsureIndexes(ctx); err != nil {
			logger.Warn("Failed to ensure event view indexes", "error", err)
		}
		views = mdb
	} else {
		logger.Warn("MONGODB_URI not set, event view tracking disabled")
	}

	userService := services.NewUserService(supa, logger)

	return &Container{
		Logger:            logger,
		Config:            cfg,
		SupabaseClient:    clients.Supabase,
		MongoDBClient:     clients.MongoDB,
		UserService:       userService,
		EventService:      services.NewEventService(supa, supa, images, logger),
		AttendanceService: services.NewAttendanceService(supa, supa, guard, logger),
		ViewService:       services.NewViewService(views, logger),
		TokenValidator:    helpers.NewTokenValidator(ctx, cfg.SupabaseURL, userService.VerifyToken, logger),
	}
}

func (c *Container) Close() {
	c.TokenValidator.Close()
}
