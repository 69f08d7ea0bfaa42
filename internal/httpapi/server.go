// Package httpapi exposes the admin HTTP surface: login, raw changelog
// upload, taxonomy maintenance, product inspection and run triggers.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yrzhe/vibe-coding-product-changelog/internal/scraper"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/admin"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/feature"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/insight"
	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/store"
)

// Options configures the admin server.
type Options struct {
	Engine      *changelog.Engine
	Admin       *admin.Service
	Chatter     insight.Chatter
	Products    []store.ProductMeta
	Password    string
	SessionTTL  int // hours
	ExcludeTags []string
}

// Server is the admin HTTP server. Crawl and summary runs are triggered
// asynchronously; a second trigger while one is running is a no-op.
type Server struct {
	engine      *changelog.Engine
	admin       *admin.Service
	chatter     insight.Chatter
	products    []store.ProductMeta
	password    string
	sessions    *sessionStore
	excludeTags []string

	crawlRunning   atomic.Bool
	summaryRunning atomic.Bool
}

// New builds the server and its route table.
func New(opts Options) *Server {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24
	}
	return &Server{
		engine:      opts.Engine,
		admin:       opts.Admin,
		chatter:     opts.Chatter,
		products:    opts.Products,
		password:    opts.Password,
		sessions:    newSessionStore(time.Duration(ttl) * time.Hour),
		excludeTags: opts.ExcludeTags,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/run-crawl", s.handleRunCrawl)
	api.POST("/run-summary", s.handleRunSummary)
	api.POST("/admin/login", s.handleLogin)

	authed := api.Group("", s.requireSession)
	authed.POST("/admin/logout", s.handleLogout)
	authed.GET("/admin/changelog", s.handleGetRawChangelog)
	authed.POST("/admin/changelog", s.handleUploadChangelog)
	authed.POST("/admin/taxonomy/rename", s.handleTaxonomyRename)
	authed.GET("/products", s.handleListProducts)
	authed.GET("/products/:name", s.handleGetProduct)
	authed.DELETE("/products/:name", s.handleDeleteProduct)
	authed.POST("/products/:name/features/:key/retag", s.handleRetagFeature)

	return r
}

// requireSession rejects requests without a live bearer token.
func (s *Server) requireSession(c *gin.Context) {
	if !s.sessions.valid(bearerToken(c)) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if s.password == "" || req.Password != s.password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.sessions.create()})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.sessions.revoke(bearerToken(c))
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (s *Server) handleStatus(c *gin.Context) {
	status, err := s.engine.Store().LoadRunStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"crawl_last_run":   status.CrawlLastRun,
		"summary_last_run": status.SummaryLastRun,
		"products":         status.Products,
		"crawl_running":    s.crawlRunning.Load(),
		"summary_running":  s.summaryRunning.Load(),
	})
}

func (s *Server) handleRunCrawl(c *gin.Context) {
	if !s.crawlRunning.CompareAndSwap(false, true) {
		c.JSON(http.StatusOK, gin.H{"status": "already_running"})
		return
	}
	// the run outlives the request, so it gets its own context
	go func() {
		defer s.crawlRunning.Store(false)
		if _, err := s.engine.MonitorAll(context.Background(), s.products); err != nil {
			log.Printf("crawl run: %v", err)
		}
	}()
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (s *Server) handleRunSummary(c *gin.Context) {
	if s.chatter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summary model not configured"})
		return
	}
	if !s.summaryRunning.CompareAndSwap(false, true) {
		c.JSON(http.StatusOK, gin.H{"status": "already_running"})
		return
	}
	go func() {
		defer s.summaryRunning.Store(false)
		ctx := context.Background()
		coverage, err := insight.Analyze(ctx, s.engine.Store(), s.excludeTags)
		if err != nil {
			log.Printf("summary run: %v", err)
			return
		}
		if _, err := insight.Summarize(ctx, s.engine.Store(), s.chatter, coverage, s.selfProduct()); err != nil {
			log.Printf("summary run: %v", err)
		}
	}()
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (s *Server) handleGetRawChangelog(c *gin.Context) {
	content, _, err := s.engine.Store().LoadRawChangelog(c.Request.Context(), s.selfProduct())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// handleUploadChangelog stores the pasted markdown, parses it, merges
// the result into the product document and classifies the new entries.
func (s *Server) handleUploadChangelog(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	self := s.selfMeta()
	ctx := c.Request.Context()

	if err := s.engine.Store().SaveRawChangelog(ctx, self.Name, req.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	fresh := scraper.ParseChangelog(req.Content)
	result, err := s.engine.UpdateFromScrape(ctx, self, fresh)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "result": result})
}

func (s *Server) handleTaxonomyRename(c *gin.Context) {
	var req struct {
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
		Kind    string `json:"kind"` // "primary" or "subtag"
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	result, err := s.admin.RenameOrMerge(c.Request.Context(), req.OldName, req.NewName, admin.Kind(req.Kind))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListProducts(c *gin.Context) {
	metas, err := s.engine.Store().ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": metas})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	doc, found, err := s.engine.Store().LoadProduct(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	data, err := store.EncodeProductDoc(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	if err := s.engine.Store().DeleteProduct(c.Request.Context(), c.Param("name")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// handleRetagFeature clears one feature's classification so the next
// tagging run re-examines it.
func (s *Server) handleRetagFeature(c *gin.Context) {
	ctx := c.Request.Context()
	name, key := c.Param("name"), c.Param("key")

	doc, found, err := s.engine.Store().LoadProduct(ctx, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	for i := range doc.Features {
		if doc.Features[i].Key() != key {
			continue
		}
		doc.Features[i].Tags = feature.TagSet{}
		if err := s.engine.Store().SaveProduct(ctx, doc); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "pending"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "feature not found"})
}

func (s *Server) selfMeta() store.ProductMeta {
	for _, p := range s.products {
		if p.IsSelf {
			return p
		}
	}
	if len(s.products) > 0 {
		return s.products[0]
	}
	return store.ProductMeta{Name: "self"}
}

func (s *Server) selfProduct() string {
	return s.selfMeta().Name
}
