// Package backendtest 提供一个基于 gin 的假后端, 记录收到的请求并返回预设响应。
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
)

// Request 是假后端收到的一次请求
type Request struct {
	Method string
	Path   string
	Body   map[string]any
}

// Reply 是对某个路径的预设响应; Raw 非空时原样返回
type Reply struct {
	Status int
	JSON   any
	Raw    string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	replies  map[string]Reply
	gate     map[string]chan struct{}
}

func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		replies: make(map[string]Reply),
		gate:    make(map[string]chan struct{}),
	}
	r := gin.New()
	r.Any("/api/*path", s.handle)
	s.Server = httptest.NewServer(r)
	return s
}

// Reply 为 "METHOD /path" 设置响应
func (s *Server) Reply(method, path string, reply Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[method+" "+path] = reply
}

// Hold 让该路径的请求阻塞, 直到返回的函数被调用
func (s *Server) Hold(method, path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gate[method+" "+path] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo 只返回指定路径的请求
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) handle(c *gin.Context) {
	req := Request{Method: c.Request.Method, Path: c.Request.URL.Path}
	if data, _ := io.ReadAll(c.Request.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &req.Body)
	}
	key := req.Method + " " + req.Path

	s.mu.Lock()
	s.requests = append(s.requests, req)
	reply, ok := s.replies[key]
	gate := s.gate[key]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-c.Request.Context().Done():
			return
		}
	}

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reply configured for " + key})
		return
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	if reply.Raw != "" {
		c.Data(status, "application/json", []byte(reply.Raw))
		return
	}
	c.JSON(status, reply.JSON)
}
