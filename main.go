package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"StudyBoard/internal/ai"
	"StudyBoard/internal/config"
	"StudyBoard/internal/export"
	sharenet "StudyBoard/internal/net"
	"StudyBoard/internal/session"
	"StudyBoard/internal/state"
	"StudyBoard/internal/tools"
	"StudyBoard/internal/translate"
	"StudyBoard/internal/ui"
)

// discoverLink makes -join browse the LAN for a host.
const discoverLink = "auto"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML config file")
	user := flag.String("user", "", "user id for saved boards (overrides config)")
	join := flag.String("join", "", "share link to join, or \"auto\" to find a host on the LAN")
	serve := flag.String("serve-sessions", "", "run only the session store API on this address, e.g. :8090")
	exportPath := flag.String("export", "", "write a saved board to this PDF file and exit")
	sessionID := flag.String("session", "", "session to export (default: most recently updated)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Config: %v", err)
	}
	if *user != "" {
		cfg.UserID = *user
	}

	if *serve != "" {
		if err := runSessionServer(cfg, *serve); err != nil {
			log.Fatalf("Session server: %v", err)
		}
		return
	}
	if *exportPath != "" {
		if err := runExport(cfg, *sessionID, *exportPath); err != nil {
			log.Fatalf("Export: %v", err)
		}
		return
	}

	link := *join
	if link == "" && flag.NArg() > 0 && strings.HasPrefix(flag.Arg(0), sharenet.LinkScheme) {
		link = flag.Arg(0)
	}
	if link != "" {
		runClient(cfg, link)
	} else {
		runHost(cfg)
	}
}

// services are the parts shared by host and client.
type services struct {
	store    session.Store
	board    *state.Board
	tools    *tools.Registry
	sessions *session.Manager
	closeDB  func()
}

func openStore(cfg *config.Config) (session.Store, func(), error) {
	if cfg.SessionURL != "" {
		log.Printf("[SESSION] Using remote store %s", cfg.SessionURL)
		return session.NewRemoteStore(cfg.SessionURL, nil), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, err
	}
	db, err := session.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := session.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Printf("[SESSION] Using local store %s", cfg.DBPath)
	return store, func() { db.Close() }, nil
}

func newServices(cfg *config.Config) *services {
	store, closeDB, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Session store: %v", err)
	}
	board := state.NewBoard()
	return &services{
		store:    store,
		board:    board,
		tools:    tools.NewRegistry(),
		sessions: session.NewManager(store, board, cfg.UserID, session.WithAutosaveDelay(cfg.AutosaveDelay)),
		closeDB:  closeDB,
	}
}

func (s *services) close() {
	s.sessions.Close()
	s.closeDB()
}

func uiOptions(cfg *config.Config, s *services) ui.Options {
	opts := ui.Options{
		Board:      s.board,
		Tools:      s.tools,
		Pen:        cfg.Pen,
		AI:         ai.NewClient(cfg.AIURL, nil),
		Sessions:   s.sessions,
		SourceLang: cfg.Translate.SourceLang,
		TargetLang: cfg.Translate.TargetLang,
		ExportFont: cfg.Export.Font,
	}
	if cfg.Translate.URL != "" {
		opts.Translator = translate.NewClient(cfg.Translate.URL, nil)
	}
	return opts
}

func runHost(cfg *config.Config) {
	log.Println("Starting as HOST")
	svc := newServices(cfg)
	defer svc.close()

	hub := sharenet.NewHub()
	link := sharenet.Bind(svc.board, sharenet.HostOwner, hub)
	defer link.Close()
	hub.OnMessage = link.Apply

	r := chi.NewRouter()
	r.Get(sharenet.SharePath, hub.ServeHTTP)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Share.Port), Handler: r}

	shareLink := sharenet.ShareLink(sharenet.GetOutgoingIP(), cfg.Share.Port)
	opts := uiOptions(cfg, svc)
	opts.Title = "StudyBoard (hosting)"
	opts.Owner = sharenet.HostOwner
	opts.Strokes = link
	opts.ShareLink = shareLink
	app := ui.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[SHARE] Host listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.SetStatus(fmt.Sprintf("Sharing unavailable: %v", err))
			log.Printf("[SHARE] Host server stopped: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		hub.Close()
		return shutdown(srv)
	})
	if cfg.SessionListen != "" {
		api := &http.Server{Addr: cfg.SessionListen, Handler: session.NewHandler(svc.store)}
		g.Go(func() error {
			log.Printf("[SESSION] Serving sessions on %s", api.Addr)
			if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[SESSION] Session server stopped: %v", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return shutdown(api)
		})
	}
	if cfg.Share.Advertise {
		if mdnsServer, err := sharenet.Advertise(cfg.Share.Port); err != nil {
			log.Printf("[SHARE] mDNS advertise failed: %v", err)
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	app.Run()
	cancel()
	if err := g.Wait(); err != nil {
		log.Printf("[SHARE] Shutdown: %v", err)
	}
}

func runClient(cfg *config.Config, link string) {
	log.Println("Starting as CLIENT")
	svc := newServices(cfg)
	defer svc.close()

	opts := uiOptions(cfg, svc)
	opts.Title = "StudyBoard (joined)"
	app := ui.New(opts)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		connectToHost(ctx, link, svc.board, app)
		return nil
	})

	app.Run()
	cancel()
	g.Wait()
}

func connectToHost(ctx context.Context, link string, board *state.Board, app *ui.App) {
	addr, err := resolveLink(ctx, link)
	if err != nil {
		app.SetStatus(err.Error())
		return
	}
	app.SetStatus("Connecting to " + addr)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, err := sharenet.Dial(dialCtx, addr)
	cancel()
	if err != nil {
		app.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// A client's id is its own network address.
	id := conn.LocalID()
	l := sharenet.Bind(board, id, conn)
	defer l.Close()
	app.BindShare(id, l)
	app.SetStatus("Connected to host as " + id)

	err = conn.Run(l.Apply)
	app.BindShare("", nil)
	if err != nil {
		app.SetStatus(err.Error())
	}
}

func resolveLink(ctx context.Context, link string) (string, error) {
	if link != discoverLink {
		return sharenet.ParseLink(link)
	}
	found := make(chan string, 1)
	err := sharenet.Browse(ctx, 3*time.Second, func(addr string) {
		select {
		case found <- addr:
		default:
		}
	})
	select {
	case addr := <-found:
		return addr, nil
	default:
	}
	if err != nil {
		return "", fmt.Errorf("no host found: %w", err)
	}
	return "", errors.New("no host found on the local network")
}

func runSessionServer(cfg *config.Config, addr string) error {
	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	srv := &http.Server{Addr: addr, Handler: session.NewHandler(store)}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[SESSION] Serving sessions on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return shutdown(srv)
	})
	return g.Wait()
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// runExport writes a stored session to a PDF without opening a window.
func runExport(cfg *config.Config, id, path string) error {
	store, closeDB, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if id == "" {
		list, err := store.List(ctx, cfg.UserID)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return fmt.Errorf("no saved boards for %s", cfg.UserID)
		}
		id = list[0].ID
	}
	sess, err := store.Get(ctx, cfg.UserID, id)
	if err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}
	return export.PDF(path, sess.Snapshot(), export.Options{Title: sess.Title, Font: cfg.Export.Font})
}
