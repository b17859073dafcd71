package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"songdeck/pkg/models"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const maxListingSize = 4 << 20

// HTTPCatalog reads a library server's directory listings and info.json
// documents.
type HTTPCatalog struct {
	base     *url.URL
	songsDir string
	match    matcher
	client   *http.Client
	logger   *logrus.Logger
}

// NewHTTPCatalog creates a catalog for the library served at baseURL
func NewHTTPCatalog(baseURL, songsDir string, extensions []string, timeout time.Duration, logger *logrus.Logger) (*HTTPCatalog, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid catalog base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog base url %q must be absolute", baseURL)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if songsDir == "" {
		songsDir = "songs"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPCatalog{
		base:     base,
		songsDir: cleanFolder(songsDir),
		match:    newMatcher(extensions),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

// ListTracks returns the audio files listed for folder
func (c *HTTPCatalog) ListTracks(ctx context.Context, folder string) []string {
	tracks, err := c.FetchTracks(ctx, folder)
	if err != nil {
		logUnavailable(c.logger, err, logrus.Fields{"folder": folder})
		return []string{}
	}
	return tracks
}

// ListAlbums returns the album folders listed under the songs directory
func (c *HTTPCatalog) ListAlbums(ctx context.Context) []string {
	albums, err := c.FetchAlbums(ctx)
	if err != nil {
		logUnavailable(c.logger, err, logrus.Fields{"folder": c.songsDir})
		return []string{}
	}
	return albums
}

// AlbumMetadata returns the metadata of album, with defaults on failure
func (c *HTTPCatalog) AlbumMetadata(ctx context.Context, album string) models.AlbumMetadata {
	meta, err := c.FetchAlbumMetadata(ctx, album)
	if err != nil {
		c.logger.WithError(err).WithField("album", album).Warn("Failed to fetch album metadata, using defaults")
	}
	return meta
}

// FetchTracks reads the listing at <base>/<folder>/ and keeps the direct
// children whose names end in an audio extension.
func (c *HTTPCatalog) FetchTracks(ctx context.Context, folder string) ([]string, error) {
	folder = cleanFolder(folder)
	names, err := c.children(ctx, folder)
	if err != nil {
		return nil, err
	}
	files := lo.Filter(names, func(name string, _ int) bool {
		return !strings.HasSuffix(name, "/")
	})
	return c.match.tracks(files), nil
}

// FetchAlbums reads the songs listing and keeps its sub-directories
func (c *HTTPCatalog) FetchAlbums(ctx context.Context) ([]string, error) {
	names, err := c.children(ctx, c.songsDir)
	if err != nil {
		return nil, err
	}
	albums := lo.FilterMap(names, func(name string, _ int) (string, bool) {
		dir, ok := strings.CutSuffix(name, "/")
		return dir, ok && dir != "" && !isHidden(dir)
	})
	return lo.Uniq(albums), nil
}

// FetchAlbumMetadata decodes <songs>/<album>/info.json. On failure the
// returned metadata still carries the defaults and cover url.
func (c *HTTPCatalog) FetchAlbumMetadata(ctx context.Context, album string) (models.AlbumMetadata, error) {
	albumPath := c.songsDir + "/" + album
	meta := defaultMetadata(album, c.resolve(albumPath+"/cover.jpg"))

	body, err := c.get(ctx, c.resolve(albumPath+"/info.json"))
	if err != nil {
		return meta, err
	}

	var info albumInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return meta, fmt.Errorf("failed to decode info.json of %s: %w", album, err)
	}

	return models.AlbumMetadata{
		Folder:      album,
		Title:       info.Title,
		Description: info.Description,
		CoverURL:    meta.CoverURL,
	}.ApplyDefaults(), nil
}

// children returns the decoded names of the entries linked from the listing
// of folder. Directories keep a trailing slash.
func (c *HTTPCatalog) children(ctx context.Context, folder string) ([]string, error) {
	listingURL, err := url.Parse(c.resolve(folder + "/"))
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, listingURL.String())
	if err != nil {
		return nil, err
	}

	hrefs, err := anchorHrefs(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing of %s: %w", folder, err)
	}

	prefix := listingURL.Path
	names := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		ref, err := listingURL.Parse(href)
		if err != nil || ref.Host != listingURL.Host {
			continue
		}
		rest, ok := strings.CutPrefix(ref.Path, prefix)
		if !ok || rest == "" {
			continue
		}
		// only direct children
		if trimmed := strings.TrimSuffix(rest, "/"); strings.Contains(trimmed, "/") {
			continue
		}
		names = append(names, rest)
	}
	return names, nil
}

// resolve joins a library-relative path onto the base url, escaping it
func (c *HTTPCatalog) resolve(rel string) string {
	return c.base.ResolveReference(&url.URL{Path: rel}).String()
}

func (c *HTTPCatalog) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	return body, nil
}

// anchorHrefs returns the href of every <a> element in document order
func anchorHrefs(body []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var hrefs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					hrefs = append(hrefs, attr.Val)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return hrefs, nil
}
