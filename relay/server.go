// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/acmeusd/sponsor/sponsor"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/cors"
)

// Server exposes the dispatcher and a health endpoint over HTTP.
//
// HTTP 服务器，负责 JSON-RPC 入口和健康检查。
type Server struct {
	cfg        *Config
	backend    Backend
	payer      *sponsor.FeePayer
	dispatcher *Dispatcher

	mu       sync.Mutex
	server   *http.Server
	endpoint net.Addr
}

// NewServer wires a relay server. It does not start listening.
func NewServer(cfg *Config, backend Backend, payer *sponsor.FeePayer) (*Server, error) {
	d, err := NewDispatcher(backend, payer, cfg)
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, backend: backend, payer: payer, dispatcher: d}, nil
}

// Handler returns the HTTP handler of the relay.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.dispatcher)
	mux.HandleFunc("/health", s.serveHealth)
	return newCorsHandler(mux, s.cfg.HTTPCors)
}

// Start begins serving on the configured host and port.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("relay server already running")
	}
	endpoint := net.JoinHostPort(s.cfg.HTTPHost, fmt.Sprint(s.cfg.HTTPPort))
	timeouts := rpc.DefaultHTTPTimeouts
	if s.cfg.HTTPTimeout > 0 {
		timeouts.WriteTimeout = s.cfg.HTTPTimeout
	}
	srv, addr, err := startHTTPEndpoint(endpoint, timeouts, s.Handler())
	if err != nil {
		return err
	}
	s.server, s.endpoint = srv, addr
	log.Info("Sponsorship relay started", "endpoint", fmt.Sprintf("http://%v/", addr), "cors", s.cfg.HTTPCors, "sponsoring", s.payer != nil)
	return nil
}

// Addr returns the listening address, nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Stop shuts down the HTTP server, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if err != nil {
		s.server.Close()
	}
	log.Info("Sponsorship relay stopped", "endpoint", s.endpoint)
	s.server, s.endpoint = nil, nil
	return err
}

type healthResponse struct {
	Status string       `json:"status"`
	Checks healthChecks `json:"checks"`
}

type healthChecks struct {
	ChainRPC    bool        `json:"chain_rpc"`
	BlockNumber uint64      `json:"block_number,omitempty"`
	FeePayer    interface{} `json:"fee_payer"` // address, or false when not configured
}

// 健康检查：链 RPC 可达且配置了付费方时为 healthy，否则为 degraded。
func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := healthResponse{Status: "healthy", Checks: healthChecks{FeePayer: false}}
	head, err := s.backend.BlockNumber(r.Context())
	if err == nil {
		resp.Checks.ChainRPC, resp.Checks.BlockNumber = true, head
	} else {
		log.Debug("Health check failed to reach chain", "err", err)
	}
	if s.payer != nil {
		resp.Checks.FeePayer = s.payer.Address()
	}
	if !resp.Checks.ChainRPC || s.payer == nil {
		resp.Status = "degraded"
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// 未配置允许来源时不启用 CORS。
func newCorsHandler(srv http.Handler, allowedOrigins []string) http.Handler {
	// disable CORS support if user has not specified a custom CORS configuration
	if len(allowedOrigins) == 0 {
		return srv
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(srv)
}

// startHTTPEndpoint starts an HTTP server on endpoint.
func startHTTPEndpoint(endpoint string, timeouts rpc.HTTPTimeouts, handler http.Handler) (*http.Server, net.Addr, error) {
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, nil, err
	}
	checkTimeouts(&timeouts)
	httpSrv := &http.Server{
		Handler:           handler,
		ReadTimeout:       timeouts.ReadTimeout,
		ReadHeaderTimeout: timeouts.ReadHeaderTimeout,
		WriteTimeout:      timeouts.WriteTimeout,
		IdleTimeout:       timeouts.IdleTimeout,
	}
	go httpSrv.Serve(listener)
	return httpSrv, listener.Addr(), nil
}

// checkTimeouts ensures that timeout values are meaningful.
//
// 检查超时配置，过小的值会被替换为默认值。
func checkTimeouts(timeouts *rpc.HTTPTimeouts) {
	if timeouts.ReadTimeout < time.Second {
		log.Warn("Sanitizing invalid HTTP read timeout", "provided", timeouts.ReadTimeout, "updated", rpc.DefaultHTTPTimeouts.ReadTimeout)
		timeouts.ReadTimeout = rpc.DefaultHTTPTimeouts.ReadTimeout
	}
	if timeouts.ReadHeaderTimeout < time.Second {
		log.Warn("Sanitizing invalid HTTP read header timeout", "provided", timeouts.ReadHeaderTimeout, "updated", rpc.DefaultHTTPTimeouts.ReadHeaderTimeout)
		timeouts.ReadHeaderTimeout = rpc.DefaultHTTPTimeouts.ReadHeaderTimeout
	}
	if timeouts.WriteTimeout < time.Second {
		log.Warn("Sanitizing invalid HTTP write timeout", "provided", timeouts.WriteTimeout, "updated", rpc.DefaultHTTPTimeouts.WriteTimeout)
		timeouts.WriteTimeout = rpc.DefaultHTTPTimeouts.WriteTimeout
	}
	if timeouts.IdleTimeout < time.Second {
		log.Warn("Sanitizing invalid HTTP idle timeout", "provided", timeouts.IdleTimeout, "updated", rpc.DefaultHTTPTimeouts.IdleTimeout)
		timeouts.IdleTimeout = rpc.DefaultHTTPTimeouts.IdleTimeout
	}
}
