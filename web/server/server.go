package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-sphere-tracer/pkg/log"
	"github.com/df07/go-sphere-tracer/pkg/scene"
)

// Server streams progressive renders of the built-in scenes over HTTP
type Server struct {
	port   int
	logger log.Logger
}

// NewServer creates a new web server
func NewServer(port int, logger log.Logger) *Server {
	return &Server{port: port, logger: logger}
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	return mux
}

// Start serves the API until the listener fails
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Noticef("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scene.Builtins())
}

// SceneRequest selects a built-in scene and overrides its sampling; zero
// values keep the scene defaults
type SceneRequest struct {
	Scene      string `json:"scene"`      // Built-in scene name
	Seed       int64  `json:"seed"`       // Seed for seeded scenes and the render
	Width      int    `json:"width"`      // Image width
	Height     int    `json:"height"`     // Image height
	MaxSamples int    `json:"maxSamples"` // Samples per pixel
	MaxDepth   int    `json:"maxDepth"`   // Maximum ray bounce depth
}

// parseSceneParams parses the parameters shared by render and inspect requests
func parseSceneParams(values url.Values, req *SceneRequest) error {
	req.Scene = values.Get("scene")
	if req.Scene == "" {
		req.Scene = scene.DefaultSceneName
	}

	if value := values.Get("seed"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		req.Seed = seed
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 0, 1, 4096); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(values, "height", 0, 1, 4096); err != nil {
		return err
	}
	if req.MaxSamples, err = parseIntParam(values, "maxSamples", 0, 1, 10000); err != nil {
		return err
	}
	if req.MaxDepth, err = parseIntParam(values, "maxDepth", 0, 1, 1000); err != nil {
		return err
	}
	return nil
}

// createScene builds the requested scene and applies the size overrides
func createScene(req *SceneRequest) (*scene.Scene, error) {
	s, err := scene.Create(req.Scene, req.Seed)
	if err != nil {
		return nil, err
	}
	s.SetSampling(scene.MergeSamplingConfig(s.SamplingConfig, scene.SamplingConfig{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.MaxSamples,
		MaxDepth:        req.MaxDepth,
	}))
	return s, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
