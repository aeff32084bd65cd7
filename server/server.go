package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-xero-service/accounting"
	"github.com/jrsteele09/go-xero-service/authflow"
	"github.com/jrsteele09/go-xero-service/internal/config"
	"github.com/jrsteele09/go-xero-service/server/flowstate"
	"github.com/jrsteele09/go-xero-service/tokens"
	"github.com/jrsteele09/go-xero-service/tokenstore"
)

// Deps holds the collaborators the server routes requests to. The server
// itself is thin plumbing: all token lifecycle and flow decisions live in
// the injected components.
type Deps struct {
	Store      tokenstore.Repo
	Manager    *tokens.Manager
	Flow       *authflow.Controller
	Accounting *accounting.Client
}

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	deps       Deps
	flowStates flowstate.Repo
	log        zerolog.Logger
}

func New(config config.Config, deps Deps, flowStateRepo flowstate.Repo, logger zerolog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Manager == nil || deps.Flow == nil || deps.Accounting == nil {
		return nil, fmt.Errorf("[Server New] all dependencies are required")
	}
	if flowStateRepo == nil {
		return nil, fmt.Errorf("[Server New] flow state repo is required")
	}

	s := &Server{
		mux:        http.NewServeMux(),
		config:     config,
		deps:       deps,
		flowStates: flowStateRepo,
		log:        logger,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
