package cli

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/calhours/internal/client"
	"github.com/julianstephens/calhours/internal/logger"
	"github.com/julianstephens/calhours/internal/models"
	"github.com/julianstephens/calhours/internal/storage"
)

type Context struct {
	Store    storage.Provider
	Fetcher  client.Fetcher
	Endpoint string
	Timeout  time.Duration
	// NoHistory disables snapshot recording and lookup.
	NoHistory bool
	Out       io.Writer
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// history returns the snapshot store ready for writes, creating it on first
// use. A nil result means history is disabled or the store could not be
// opened; callers carry on without it.
func (c *Context) history() storage.Provider {
	if c.NoHistory || c.Store == nil {
		return nil
	}
	err := c.Store.Load()
	if errors.Is(err, storage.ErrNotInitialized) {
		err = c.Store.Init()
	}
	if err != nil {
		logger.Warn("Snapshot history unavailable", "path", c.Store.GetConfigPath(), "error", err)
		return nil
	}
	return c.Store
}

// parseRangeFlag validates an optional --range value. Empty stays empty.
func parseRangeFlag(s string) (models.Range, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return models.ParseRange(s)
}
