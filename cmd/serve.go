package cmd

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/maokus/mvmnt/engine"
	"github.com/maokus/mvmnt/logger"
	"github.com/maokus/mvmnt/timing"
)

var (
	serveAddr string
	serveBars int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&serveBars, "bars", 1, "bars per window")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <file.mid>",
	Short: "Serves frames over HTTP",
	Long:  `Serves draw directives and timing configuration as JSON for an external renderer.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eng, err := newEngineFromFile(args[0], serveBars)
		cobra.CheckErr(err)
		cobra.CheckErr(serve(eng, serveAddr))
	},
}

// frameServer guards the engine with one mutex at the HTTP boundary; the
// engine itself is single-threaded by contract.
type frameServer struct {
	mu      sync.Mutex
	eng     *engine.Engine
	session string

	// coalesces the config-changed notice during slider drags; the config
	// itself always applies immediately
	announce func(f func())
}

func serve(eng *engine.Engine, addr string) error {
	s := &frameServer{
		eng:      eng,
		session:  uuid.New().String(),
		announce: debounce.New(500 * time.Millisecond),
	}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/frame", s.handleFrame).Methods("GET")
	router.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	router.HandleFunc("/config", s.handlePutConfig).Methods("PUT")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"addr":    addr,
		"session": s.session,
	}).Info("serving frames")
	return http.ListenAndServe(addr, cors.Default().Handler(router))
}

func (s *frameServer) handleFrame(w http.ResponseWriter, r *http.Request) {
	t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
	if err != nil {
		http.Error(w, "query parameter t must be a number", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	frame, err := s.eng.BuildFrame(t)
	s.mu.Unlock()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, frame)
}

func (s *frameServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.eng.Authority().Config()
	s.mu.Unlock()
	writeJSON(w, cfg)
}

func (s *frameServer) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg timing.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "could not decode config: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err := s.eng.Authority().ApplyConfig(cfg)
	if err == nil {
		s.eng.RetimeFromTicks()
	}
	applied := s.eng.Authority().Config()
	gen := s.eng.Authority().Generation()
	s.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.announce(func() {
		logger.GetProjectLogger().WithFields(logrus.Fields{
			"bpm":        applied.BPM,
			"generation": gen,
		}).Info("configuration updated")
	})
	writeJSON(w, applied)
}

func (s *frameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	gen := s.eng.Authority().Generation()
	s.mu.Unlock()
	writeJSON(w, map[string]interface{}{
		"session":    s.session,
		"generation": gen,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetProjectLogger().Errorf("could not encode response: %v", err)
	}
}
