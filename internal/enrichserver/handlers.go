package enrichserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/personalize"
	"github.com/anatolykoptev/go_enrich/internal/store"
)

const maxBatchEmails = 50

type enrichRequest struct {
	Email   string                  `json:"email" binding:"required"`
	Domain  string                  `json:"domain"`
	Context personalize.UserContext `json:"context"`
}

type batchRequest struct {
	Emails []string `json:"emails" binding:"required"`
	Limit  int      `json:"limit"`
}

func profileCacheKey(email string) string {
	return engine.CacheKey("profile", email)
}

// handleEnrich runs the full pipeline for one email: resolve, personalize,
// filter, persist. The job row tracks the request end to end.
func (s *Server) handleEnrich(c *gin.Context) {
	var req enrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := engine.NormalizeEmail(req.Email)
	if !engine.ValidEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
		return
	}

	ctx := c.Request.Context()
	jobID := uuid.NewString()
	if err := s.store.CreateJob(ctx, jobID, email, req.Domain); err != nil {
		engine.IncrStoreErrors()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job creation failed"})
		return
	}
	s.failJobOnError(c, jobID, func() error {
		return s.store.UpdateJobStatus(ctx, jobID, store.JobProcessing, "")
	})
	if c.IsAborted() {
		return
	}

	resolved, raw, err := s.engine.Resolve(ctx, email, req.Domain)
	if err != nil {
		_ = s.store.UpdateJobStatus(ctx, jobID, store.JobFailed, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "job_id": jobID})
		return
	}

	// Raw payloads are persisted only for the sources that contributed to
	// the merge; mock and failed results stay out of storage.
	for _, src := range resolved.DataSources {
		r, ok := raw[src]
		if !ok {
			continue
		}
		if err := s.store.StoreRaw(ctx, email, src, r.Fields); err != nil {
			engine.IncrStoreErrors()
			slog.Warn("raw payload store failed", "source", src, "error", err)
		}
	}

	copyRes := s.gen.Generate(ctx, resolved, req.Context)
	hook, cta := copyRes.Hook, copyRes.CTA

	check := personalize.Check(hook, cta, true)
	if !check.Passed {
		if check.CorrectedHook != "" && check.CorrectedCTA != "" {
			hook, cta = check.CorrectedHook, check.CorrectedCTA
			slog.Info("using corrected personalization", "job_id", jobID)
		} else {
			hook = personalize.SafeHook(fieldString(resolved.Fields, "first_name"))
			cta = personalize.SafeCTA()
		}
	}

	s.failJobOnError(c, jobID, func() error {
		return s.store.UpsertResolved(ctx, resolved, hook, cta)
	})
	if c.IsAborted() {
		return
	}
	engine.CacheDelete(ctx, profileCacheKey(email))

	if err := s.store.UpdateJobStatus(ctx, jobID, store.JobCompleted, ""); err != nil {
		engine.IncrStoreErrors()
		slog.Warn("job completion update failed", "job_id", jobID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":  jobID,
		"email":   email,
		"status":  store.JobCompleted,
		"profile": resolved,
		"personalization": gin.H{
			"hook":       hook,
			"cta":        cta,
			"model_used": copyRes.ModelUsed,
		},
	})
}

// failJobOnError marks the job failed and aborts with a 500 when fn errors.
func (s *Server) failJobOnError(c *gin.Context, jobID string, fn func() error) {
	err := fn()
	if err == nil {
		return
	}
	engine.IncrStoreErrors()
	_ = s.store.UpdateJobStatus(c.Request.Context(), jobID, store.JobFailed, err.Error())
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		gin.H{"error": "persistence failed", "job_id": jobID})
}

// handleEnrichBatch resolves up to maxBatchEmails addresses concurrently.
// Batch runs are previews: nothing is persisted, callers follow up with
// POST /enrich for the addresses worth keeping.
func (s *Server) handleEnrichBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Emails) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emails must not be empty"})
		return
	}
	if len(req.Emails) > maxBatchEmails {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many emails in one batch"})
		return
	}

	items := s.engine.ResolveBatch(c.Request.Context(), req.Emails, req.Limit)
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (s *Server) handleProfile(c *gin.Context) {
	email := engine.NormalizeEmail(c.Param("email"))
	ctx := c.Request.Context()

	key := profileCacheKey(email)
	if rec, ok := engine.CacheLoadJSON[store.ResolvedRecord](ctx, key); ok {
		c.JSON(http.StatusOK, rec)
		return
	}

	rec, err := s.store.GetResolved(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		engine.IncrStoreErrors()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	engine.CacheStoreJSON(ctx, key, *rec)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleJob(c *gin.Context) {
	job, err := s.store.GetJob(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		engine.IncrStoreErrors()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// handlePDF renders the ebook for an already-resolved profile.
func (s *Server) handlePDF(c *gin.Context) {
	email := engine.NormalizeEmail(c.Param("email"))
	ctx := c.Request.Context()

	rec, err := s.store.GetResolved(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		engine.IncrStoreErrors()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	deliveryID := uuid.NewString()
	doc, err := s.renderer.Render(email, deliveryID, rec.Fields, rec.Hook, rec.CTA)
	if err != nil {
		slog.Error("pdf render failed", "email_domain", rec.Domain, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}

	if err := s.store.CreatePDFDelivery(ctx, deliveryID, doc.Path, doc.Size, doc.ExpiresAt); err != nil {
		engine.IncrStoreErrors()
		slog.Warn("delivery record failed", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"delivery_id": deliveryID, "document": doc})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.String(http.StatusOK, engine.FormatMetrics())
}

func fieldString(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
