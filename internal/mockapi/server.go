package mockapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// APIPrefix is the path every catalog route lives under.
const APIPrefix = "/api"

type account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
}

type bookRecord struct {
	ID            string
	Title         string
	Author        string
	Description   string
	Genre         string
	PublishedYear int
	AverageRating float64
	ReviewCount   int
	OwnerID       string
	CreatedAt     time.Time
	seq           int
}

type reviewRecord struct {
	ID         string
	BookID     string
	UserID     string
	Rating     int
	ReviewText string
	CreatedAt  time.Time
	seq        int
}

// Server is an in-memory implementation of the catalog REST API.
type Server struct {
	mu       sync.RWMutex
	accounts map[string]*account
	byEmail  map[string]string
	tokens   map[string]string
	books    map[string]*bookRecord
	reviews  map[string]*reviewRecord
	seq      int

	bcryptCost int
	now        func() time.Time
	logger     *zap.Logger
	registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	router     *mux.Router
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns an empty Server.
func New(opts ...Option) *Server {
	s := &Server{
		accounts:   make(map[string]*account),
		byEmail:    make(map[string]string),
		tokens:     make(map[string]string),
		books:      make(map[string]*bookRecord),
		reviews:    make(map[string]*reviewRecord),
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
		logger:     zap.NewNop(),
		registry:   prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "folio_mock_requests_total",
		Help: "Requests served by the mock catalog API.",
	}, []string{"route", "method", "status"})
	s.registry.MustRegister(s.requests)
	s.router = s.newRouter()
	return s
}

// Handler returns the HTTP handler serving the API and /metrics.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry exposes the metrics registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Server) nextSeq() int {
	s.seq++
	return s.seq
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeBody(r *http.Request, dest any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dest)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
