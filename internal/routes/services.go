package routes

import (
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/auth"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/catalog"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/dashboard"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/fundi"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/jobs"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/messaging"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/moderation"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/ratings"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/stats"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/wallet"
)

// Services is every domain service sharing one store and publisher.
type Services struct {
	Store      *repository.Store
	Auth       *auth.Service
	Wallet     *wallet.WalletService
	Jobs       *jobs.Service
	Fundi      *fundi.Service
	Messaging  *messaging.Service
	Ratings    *ratings.Service
	Moderation *moderation.ModerationService
	Catalog    *catalog.Service
	Stats      *stats.Service
	Dashboard  *dashboard.Service
}

func NewServices(store *repository.Store, pub realtime.Publisher, jwtSecret string, expiresMin int) *Services {
	w := wallet.NewWalletService(store, pub)
	s := &Services{
		Store:      store,
		Auth:       auth.NewService(store, pub, jwtSecret, expiresMin),
		Wallet:     w,
		Jobs:       jobs.NewService(store, w, pub),
		Fundi:      fundi.NewService(store, w, pub),
		Messaging:  messaging.NewService(store, pub),
		Ratings:    ratings.NewService(store, pub),
		Moderation: moderation.NewModerationService(store, pub),
		Catalog:    catalog.NewService(store, pub),
		Stats:      stats.NewService(store),
	}
	s.Dashboard = dashboard.NewService(s.Jobs, s.Fundi, s.Moderation, s.Stats)
	return s
}
