package client

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/unirecords/university-api/pkg/config"
)

// Existence is the outcome of a remote existence check. The enrollment
// workflow treats Absent and Unknown the same way (the request fails with
// not-found), but keeping them apart lets the caller log the difference.
type Existence int

const (
	ExistenceConfirmed Existence = iota
	ExistenceAbsent
	ExistenceUnknown
)

// Directory answers existence questions about students and courses by
// querying the owning services' public read endpoints. One GET per check,
// no retries, no caching; the transport timeout comes from configuration.
type Directory struct {
	http        *http.Client
	studentBase string
	courseBase  string
	logger      *zap.Logger
}

// NewDirectory constructs a Directory from peer configuration.
func NewDirectory(cfg config.PeerConfig, logger *zap.Logger) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{
		http:        &http.Client{Timeout: cfg.RequestTimeout},
		studentBase: cfg.StudentBaseURL,
		courseBase:  cfg.CourseBaseURL,
		logger:      logger,
	}
}

// StudentExists checks the student service for the given id.
func (d *Directory) StudentExists(ctx context.Context, id int64) Existence {
	return d.check(ctx, fmt.Sprintf("%s/api/students/%d", d.studentBase, id))
}

// CourseExists checks the course service for the given id.
func (d *Directory) CourseExists(ctx context.Context, id int64) Existence {
	return d.check(ctx, fmt.Sprintf("%s/api/courses/%d", d.courseBase, id))
}

func (d *Directory) check(ctx context.Context, url string) Existence {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ExistenceUnknown
	}

	resp, err := d.http.Do(req)
	if err != nil {
		d.logger.Warn("existence check unreachable", zap.String("url", url), zap.Error(err))
		return ExistenceUnknown
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return ExistenceConfirmed
	case resp.StatusCode == http.StatusNotFound:
		return ExistenceAbsent
	default:
		d.logger.Warn("existence check returned unexpected status",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return ExistenceUnknown
	}
}
