// Package api exposes the indexer's store over HTTP: the read routes
// spec.md §6 names (tx/blocktx/ticker/assets/asset-contract/
// collateralized lookups) plus a stateless transaction validator. Every
// handler builds a fresh read-only indexer.Updater per request rather
// than holding one open across requests, mirroring the original's
// "lock the database, do one query, drop the lock" discipline.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"glittr.dev/core/indexer"
)

// Server wires the router, the indexing Driver it queries, and the
// underlying net/http server together.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	driver     *indexer.Driver
}

// New builds a Server bound to addr, querying driver's store for every
// route.
func New(addr string, driver *indexer.Driver) *Server {
	s := &Server{router: mux.NewRouter(), driver: driver}
	s.routes()

	handler := cors.AllowAll().Handler(s.router)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(loggingMiddleware)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/tx/{txid}", s.handleTxResult).Methods(http.MethodGet)
	s.router.HandleFunc("/blocktx/{block:[0-9]+}/{tx:[0-9]+}", s.handleBlockTx).Methods(http.MethodGet)
	s.router.HandleFunc("/blocktx/ticker/{ticker}", s.handleBlockTxByTicker).Methods(http.MethodGet)
	s.router.HandleFunc("/assets/{txid}/{vout:[0-9]+}", s.handleAssets).Methods(http.MethodGet)
	s.router.HandleFunc("/asset-contract/{block:[0-9]+}/{tx:[0-9]+}", s.handleAssetContract).Methods(http.MethodGet)
	s.router.HandleFunc("/collateralized/{block:[0-9]+}/{tx:[0-9]+}", s.handleCollateralized).Methods(http.MethodGet)
	s.router.HandleFunc("/validate-tx", s.handleValidateTx).Methods(http.MethodPost)
}

// ListenAndServe blocks serving HTTP until the listener fails or is
// shut down.
func (s *Server) ListenAndServe() error {
	logrus.WithField("addr", s.httpServer.Addr).Info("api: listening")
	return s.httpServer.ListenAndServe()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("api: request")
	})
}
