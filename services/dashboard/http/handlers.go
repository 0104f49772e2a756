package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jihyolabs/ddareungi-monitor/services/dashboard/data"
)

// lookback bounds match the original dashboard's slider range.
const (
	minLookbackMinutes = 10
	maxLookbackMinutes = 360
)

func (s *Server) lookbackParam(c *gin.Context) (int, bool) {
	lookback := s.cfg.LookbackMinutes
	if v := c.Query("lookback_minutes"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < minLookbackMinutes || parsed > maxLookbackMinutes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lookback_minutes"})
			return 0, false
		}
		lookback = parsed
	}
	return lookback, true
}

func (s *Server) load(c *gin.Context) (*data.Result, bool) {
	lookback, ok := s.lookbackParam(c)
	if !ok {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	result, err := s.access.Load(ctx, lookback)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return result, true
}

// handleLatest returns one enriched row per station, the most recent in the
// lookback window (or the full corpus when degraded).
// GET /api/v1/status/latest
func (s *Server) handleLatest(c *gin.Context) {
	result, ok := s.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.Latest,
		"meta": gin.H{
			"count":  len(result.Latest),
			"source": result.Source,
		},
	})
}

// handleRecent returns every enriched row in the lookback window.
// GET /api/v1/status/recent
func (s *Server) handleRecent(c *gin.Context) {
	result, ok := s.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.Recent,
		"meta": gin.H{
			"count":  len(result.Recent),
			"source": result.Source,
		},
	})
}

// handlePeakHours returns the hourly-aggregate view, empty when the view is
// missing or the read is degraded.
// GET /api/v1/status/peak-hours
func (s *Server) handlePeakHours(c *gin.Context) {
	result, ok := s.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.PeakHours,
		"meta": gin.H{
			"count":  len(result.PeakHours),
			"source": result.Source,
		},
	})
}

// handleRelocation returns the relocation-candidate view rows as-is.
// GET /api/v1/status/relocation
func (s *Server) handleRelocation(c *gin.Context) {
	result, ok := s.load(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result.Relocation,
		"meta": gin.H{
			"count":  len(result.Relocation),
			"source": result.Source,
		},
	})
}

// handleCorpus returns the full historical flat file.
// GET /api/v1/status/corpus
func (s *Server) handleCorpus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	rows, err := s.access.Corpus(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": rows,
		"meta": gin.H{"count": len(rows)},
	})
}

// handleCacheClear drops the TTL cache so the next read hits the sources.
// POST /api/v1/cache/clear
func (s *Server) handleCacheClear(c *gin.Context) {
	s.access.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
