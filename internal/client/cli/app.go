package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/hoaxbuster/internal/client/client"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/config"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/events"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/geocode"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/models"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/netstatus"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/outbox"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/reconcile"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/services"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/statusapi"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/store"
	"github.com/dmitrijs2005/hoaxbuster/internal/client/syncer"
	"github.com/dmitrijs2005/hoaxbuster/internal/clock"
	"github.com/dmitrijs2005/hoaxbuster/internal/filex"
	"github.com/dmitrijs2005/hoaxbuster/internal/logging"
	"github.com/dmitrijs2005/hoaxbuster/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type locationNamer interface {
	LocationName(ctx context.Context, lat, lon float64, show func(string)) string
}

type queueViewer interface {
	Pending(ctx context.Context) ([]models.Mutation, error)
}

type syncRunner interface {
	SyncNow(ctx context.Context) syncer.Summary
}

type connectivity interface {
	IsOnline() bool
	Check(ctx context.Context) bool
}

// App is the interactive client. Commands talk to the services through
// interfaces; the concrete runtime pieces are only needed by Run.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	auth      services.AuthService
	stories   services.StoryService
	bookmarks services.BookmarkService
	hoax      services.HoaxService
	geo       locationNamer
	queue     queueViewer
	sync      syncRunner
	online    connectivity
	stats     statusapi.StatsSource

	store    *store.Store
	registry *prometheus.Registry
	bus      *events.Bus
	monitor  *netstatus.Monitor
	geocoder *geocode.Service
	syncer   *syncer.Syncer
}

// NewApp opens the local store and wires the sync core around it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.DatabasePath, log)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	policy, err := outbox.ParsePolicy(cfg.ReplayPolicy)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewCollector(reg)
	bus := events.NewBus(log)

	api := client.NewHTTPClient(cfg.APIURL, &http.Client{Timeout: cfg.RequestTimeout}, services.SessionToken(st), log)
	monitor := netstatus.New(api, bus, log, cfg.OnlineCheckInterval)

	rec := reconcile.New(st, log,
		reconcile.WithMatchWindow(cfg.MatchWindow),
		reconcile.WithPublisher(bus),
		reconcile.WithMetrics(m),
	)
	queue := outbox.New(st.Repos().Mutations, api, log,
		outbox.WithPolicy(policy),
		outbox.WithMaxRetries(cfg.MaxRetries),
		outbox.WithPublisher(bus),
		outbox.WithMetrics(m),
	)

	auth := services.NewAuthService(api, st, bus, log)
	stories := services.NewStoryService(api, st, rec, auth, monitor, clock.Real{}, bus, log)
	bookmarks := services.NewBookmarkService(st, clock.Real{}, bus, log)
	hoax := services.NewHoaxService(api, st, auth, monitor, log)

	geoHTTP := &http.Client{Timeout: cfg.GeocodeTimeout}
	geocoder := geocode.New(st.Repos().Geocache, monitor, log,
		geocode.WithResolvers(
			geocode.NewNominatim(geoHTTP, cfg.NominatimURL),
			geocode.NewBigDataCloud(geoHTTP, cfg.BigDataCloudURL),
		),
		geocode.WithTimeout(cfg.GeocodeTimeout),
		geocode.WithMetrics(m),
		geocode.WithSweep(geocode.DefaultSweepDelay, cfg.GeocodeSweepInterval),
	)

	sy := syncer.New(stories, queue, log, syncer.WithMetrics(m))

	return &App{
		cfg:    cfg,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,

		auth:      auth,
		stories:   stories,
		bookmarks: bookmarks,
		hoax:      hoax,
		geo:       geocoder,
		queue:     queue,
		sync:      sy,
		online:    monitor,
		stats:     st,

		store:    st,
		registry: reg,
		bus:      bus,
		monitor:  monitor,
		geocoder: geocoder,
		syncer:   sy,
	}, nil
}

// Run starts the background watchers and blocks in the REPL until the user
// exits or ctx ends.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.bus.Subscribe(a.printEvent)
	defer unsubscribe()

	removeListener := a.monitor.AddListener(a.syncer.Listener(ctx))
	defer removeListener()

	go a.monitor.Run(ctx)

	stopSweeper := a.geocoder.StartSweeper(ctx)
	defer stopSweeper()

	if a.cfg.MetricsAddr != "" {
		h := statusapi.NewRouter(statusapi.Deps{Online: a.monitor, Stats: a.store, Gatherer: a.registry})
		go func() {
			if err := statusapi.Serve(ctx, a.cfg.MetricsAddr, h, a.log); err != nil {
				a.log.Error(ctx, "status endpoint stopped", "error", err)
			}
		}()
	}

	runREPL(ctx, a, a.prompt, a.reader)

	cancel()
	a.syncer.Wait()
	return nil
}

// printEvent shows notices to the user. Other events only go to the debug log.
func (a *App) printEvent(e events.Event) {
	n, ok := e.(events.Notice)
	if !ok {
		a.log.Debug(context.Background(), "event", "name", e.EventName())
		return
	}
	fmt.Fprintf(a.out, "[%s] %s\n", n.Level, n.Message)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	_, ok := a.auth.CurrentUser(ctx)
	return ok
}

func (a *App) prompt(ctx context.Context) string {
	mode := "offline"
	if a.online.IsOnline() {
		mode = "online"
	}
	if u, ok := a.auth.CurrentUser(ctx); ok {
		return fmt.Sprintf("%s, %s", u.Name, mode)
	}
	return fmt.Sprintf("guest, %s", mode)
}
