package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yatube/events"
	"yatube/media"
	"yatube/monitoring/middleware"
	"yatube/storage/cache"
)

type Config struct {
	PageSize      int
	IndexCacheTTL time.Duration
	JWTSecret     []byte
}

type Server struct {
	db         *gorm.DB
	pagesCache cache.Pages
	usersCache *cache.Users
	mediaStore media.Store
	publisher  events.Publisher

	pageSize  int
	indexTTL  time.Duration
	jwtSecret []byte
}

// NewServer wires the handlers to their collaborators. usersCache may
// be nil, in which case author post counts always come from the DB.
func NewServer(
	db *gorm.DB,
	pagesCache cache.Pages,
	usersCache *cache.Users,
	mediaStore media.Store,
	publisher events.Publisher,
	config Config,
) *Server {
	return &Server{
		db:         db,
		pagesCache: pagesCache,
		usersCache: usersCache,
		mediaStore: mediaStore,
		publisher:  publisher,
		pageSize:   config.PageSize,
		indexTTL:   config.IndexCacheTTL,
		jwtSecret:  config.JWTSecret,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /group/{slug}/{$}", s.groupPosts)
	mux.HandleFunc("GET /profile/{username}/{$}", s.profile)
	mux.HandleFunc("GET /posts/{id}/{$}", s.postDetail)

	mux.HandleFunc("GET /create/{$}", s.requireAuth(s.postCreateForm))
	mux.HandleFunc("POST /create/{$}", s.requireAuth(s.postCreate))
	mux.HandleFunc("GET /posts/{id}/edit/{$}", s.requireAuth(s.postEditForm))
	mux.HandleFunc("POST /posts/{id}/edit/{$}", s.requireAuth(s.postEdit))
	mux.HandleFunc("POST /posts/{id}/comment/{$}", s.requireAuth(s.addComment))
	mux.HandleFunc("GET /follow/{$}", s.requireAuth(s.followIndex))
	mux.HandleFunc("GET /profile/{username}/follow/{$}", s.requireAuth(s.profileFollow))
	mux.HandleFunc("GET /profile/{username}/unfollow/{$}", s.requireAuth(s.profileUnfollow))

	mux.HandleFunc("GET /auth/signup/{$}", s.signupForm)
	mux.HandleFunc("POST /auth/signup/{$}", s.signup)
	mux.HandleFunc("GET /auth/login/{$}", s.loginForm)
	mux.HandleFunc("POST /auth/login/{$}", s.login)
	mux.HandleFunc("GET /auth/logout/{$}", s.logout)

	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.NewServerMiddleware(mux)
}

func (s *Server) Run(port int) {
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), s.Handler())
	if errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("server closed\n")
	} else if err != nil {
		fmt.Printf("error starting server: %s\n", err)
		os.Exit(1)
	}
}

func (s *Server) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Errorf("Error publishing %s event: %v", event.Kind, err)
	}
}
