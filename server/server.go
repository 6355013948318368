// Package server 提供推荐结果的 HTTP 接口。
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rushteam/resonance/core"
	"github.com/rushteam/resonance/pkg/logger"
)

// Recommender 是 /feed 依赖的推荐接口，*engine.Engine 实现了它。
type Recommender interface {
	Recommend(ctx context.Context, userID int64, category string, k int) ([]int64, error)
}

// Server 组装路由。
type Server struct {
	rec    Recommender
	posts  core.PostReader
	logger *zap.Logger
	router chi.Router
}

func New(rec Recommender, posts core.PostReader, log *zap.Logger) *Server {
	s := &Server{rec: rec, posts: posts, logger: logger.OrNop(log)}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/feed", s.handleFeed)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

type feedResponse struct {
	Status string     `json:"status"`
	Post   []FeedPost `json:"post"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleFeed GET /feed?userid=<int>&project_code=<category>&k=<int>
// 按推荐顺序返回帖子；推荐结果中没有帖子记录的 ID 会被跳过。
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, err := strconv.ParseInt(q.Get("userid"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "userid must be an integer"})
		return
	}
	k := 0
	if raw := q.Get("k"); raw != "" {
		if k, err = strconv.Atoi(raw); err != nil || k < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Message: "k must be a non-negative integer"})
			return
		}
	}

	ids, err := s.rec.Recommend(r.Context(), userID, q.Get("project_code"), k)
	if err != nil {
		s.logger.Error("recommend failed", zap.Int64("user", userID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: "Error generating recommendations: " + err.Error()})
		return
	}

	out := make([]FeedPost, 0, len(ids))
	if len(ids) > 0 {
		posts, err := s.posts.LoadPosts(r.Context())
		if err != nil {
			s.logger.Error("load posts failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Status: "error", Message: err.Error()})
			return
		}
		byID := make(map[int64]core.Post, len(posts))
		for _, p := range posts {
			byID[p.ID] = p
		}
		for _, id := range ids {
			if p, ok := byID[id]; ok {
				out = append(out, Present(p))
			}
		}
	}
	writeJSON(w, http.StatusOK, feedResponse{Status: "success", Post: out})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Run 在 addr 上提供服务，直到 ctx 结束后优雅关闭。
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
