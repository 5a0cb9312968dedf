package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deckforge/tabletop-server-go/internal/card"
)

const imageExt = ".jpg"

// DefaultDownloadSpacing is the pause between queued image downloads so
// the card image host is not hammered during deck import.
const DefaultDownloadSpacing = 200 * time.Millisecond

// ImageCache keeps card artwork on disk. Lookups return the cached file
// when present; misses fall back to the remote URL while a background
// worker fills the cache at a bounded rate.
type ImageCache struct {
	store   *Store
	logger  *zap.Logger
	client  *http.Client
	spacing time.Duration

	queue  chan imageJob
	done   chan struct{}
	cancel context.CancelFunc
}

type imageJob struct {
	key string
	uri string
}

// NewImageCache opens an image cache rooted at dir and starts its
// download worker. Close releases the worker.
func NewImageCache(dir string, logger *zap.Logger) (*ImageCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := NewStore(dir)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	ic := &ImageCache{
		store:   store,
		logger:  logger,
		client:  &http.Client{Timeout: 30 * time.Second},
		spacing: DefaultDownloadSpacing,
		queue:   make(chan imageJob, 256),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go ic.worker(ctx)
	return ic, nil
}

// imageKey builds the on-disk name for a card's artwork.
func imageKey(c *card.Card) string {
	name := strings.ToLower(Sanitize(c.Name))
	return fmt.Sprintf("%s-%s-%s%s", strings.ToLower(c.Set), c.CollectorNumber, name, imageExt)
}

// Resolve returns a local file path when the card's image is cached, or
// the remote URL otherwise. A miss with a known remote URL is queued for
// background download.
func (ic *ImageCache) Resolve(c *card.Card) string {
	if c == nil || c.ImageURI == "" {
		return ""
	}
	key := imageKey(c)
	if ic.store.Exists(key) {
		return ic.store.Path(key)
	}
	select {
	case ic.queue <- imageJob{key: key, uri: c.ImageURI}:
	default:
		// Queue full. The card still renders from the remote URL.
	}
	return c.ImageURI
}

// Cached reports whether the card's image is already on disk.
func (ic *ImageCache) Cached(c *card.Card) bool {
	if c == nil {
		return false
	}
	return ic.store.Exists(imageKey(c))
}

func (ic *ImageCache) worker(ctx context.Context) {
	defer close(ic.done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-ic.queue:
			if ic.store.Exists(job.key) {
				continue
			}
			if err := ic.download(ctx, job); err != nil {
				if ctx.Err() != nil {
					return
				}
				ic.logger.Warn("image download failed",
					zap.String("image", job.key),
					zap.Error(err),
				)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(ic.spacing):
			}
		}
	}
}

func (ic *ImageCache) download(ctx context.Context, job imageJob) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.uri, nil)
	if err != nil {
		return err
	}
	resp, err := ic.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", job.uri, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return ic.store.Write(job.key, data)
}

// Close stops the download worker and waits for it to exit.
func (ic *ImageCache) Close() {
	ic.cancel()
	<-ic.done
}
