// Package app is the composition root for the shell: it wires the
// gateway, session manager, stores, position book, poller, and view
// registry into one object the frontend binds to.
package app

import (
	"go.uber.org/zap"

	"wolfquant/internal/backend"
	"wolfquant/internal/config"
	"wolfquant/internal/gateway"
	"wolfquant/internal/gateway/httpgw"
	"wolfquant/internal/logger"
	"wolfquant/internal/poller"
	"wolfquant/internal/position"
	"wolfquant/internal/session"
	"wolfquant/internal/store"
	"wolfquant/internal/views"
)

// App bundles every component of a running shell.
type App struct {
	Gateway  gateway.Gateway
	Sessions *session.Manager
	Book     *position.Book

	Assets *store.AssetStore
	Groups *store.GroupStore
	Plans  *store.PlanStore
	Tasks  *store.TaskStore

	Poller *poller.Poller
	Views  *views.Registry

	scheduler *backend.Scheduler
	log       *zap.SugaredLogger
}

// New builds a shell over the given gateway. Pass an embedded backend for
// the desktop deployment or an httpgw client for a remote one.
func New(cfg *config.Config, gw gateway.Gateway) *App {
	sessions := session.NewManager(gw)
	book := position.NewBook()
	tasks := store.NewTaskStore(gw, sessions)

	app := &App{
		Gateway:  gw,
		Sessions: sessions,
		Book:     book,
		Assets:   store.NewAssetStore(gw, sessions, book),
		Groups:   store.NewGroupStore(gw, sessions),
		Plans:    store.NewPlanStore(gw, sessions, book),
		Tasks:    tasks,
		Poller:   poller.New(tasks, cfg.PollInterval, cfg.PollMaxRetries),
		Views: views.NewRegistry(views.View{
			Key:       "home",
			Title:     "Home",
			Component: "HomeView",
		}),
		log: logger.Get(),
	}
	return app
}

// NewEmbedded builds a shell over the local backend, including the
// due-plan scheduler.
func NewEmbedded(cfg *config.Config) (*App, error) {
	db, err := backend.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	b := backend.New(db, cfg)

	scheduler, err := backend.NewScheduler(b)
	if err != nil {
		return nil, err
	}

	app := New(cfg, b)
	app.scheduler = scheduler
	return app, nil
}

// NewRemote builds a shell over a gatewayd instance.
func NewRemote(cfg *config.Config, baseURL string) *App {
	return New(cfg, httpgw.NewClient(baseURL))
}

// Start begins background work: the due-plan scheduler when running
// embedded.
func (a *App) Start() {
	if a.scheduler != nil {
		a.scheduler.Start()
	}
}

// Stop halts pollers and the scheduler.
func (a *App) Stop() {
	a.Poller.StopAll()
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
}

// EndSession logs out and clears every store, the position book, and the
// open views.
func (a *App) EndSession() {
	a.Poller.StopAll()
	a.Assets.Reset()
	a.Groups.Reset()
	a.Plans.Reset()
	a.Tasks.Reset()
	a.Book.Reset()
	a.Views.Reset()
}
