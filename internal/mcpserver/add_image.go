package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const maxImageSize = 10 << 20 // 10 MB

// imageTypes maps the accepted media types to the file extension stored.
var imageTypes = map[string]string{
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/gif":                ".gif",
	"image/webp":               ".webp",
	"image/svg+xml":            ".svg",
	"image/x-icon":             ".ico",
	"image/vnd.microsoft.icon": ".ico",
}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

var errBlockedAddress = errors.New("blocked address")

// fetchedImage is image bytes plus the extension implied by their declared type.
type fetchedImage struct {
	data []byte
	ext  string
}

// imageSource loads images from data URIs and http(s) URLs.
type imageSource struct {
	client *http.Client
}

func newImageSource() *imageSource {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: refusePrivateDial,
	}
	return &imageSource{client: &http.Client{
		Timeout:   30 * time.Second,
		Transport: &http.Transport{DialContext: dialer.DialContext},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects (max 5)")
			}
			return nil
		},
	}}
}

// refusePrivateDial runs after DNS resolution, so every redirect hop and
// every resolved address is checked.
func refusePrivateDial(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return fmt.Errorf("%w: %s", errBlockedAddress, host)
	}
	return nil
}

func (src *imageSource) load(ctx context.Context, raw string) (*fetchedImage, error) {
	if strings.HasPrefix(raw, "data:") {
		return decodeDataURI(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %q (only http/https and data URIs)", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := src.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image too large: exceeds %d bytes", maxImageSize)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return &fetchedImage{data: data, ext: imageTypes[mediaType]}, nil
}

// decodeDataURI accepts data:<image type>;base64,<payload>.
func decodeDataURI(uri string) (*fetchedImage, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("invalid data URI: missing comma separator")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, errors.New("only base64 data URIs are supported")
	}
	mediaType, _, _ = strings.Cut(mediaType, ";")
	ext, ok := imageTypes[mediaType]
	if !ok {
		return nil, fmt.Errorf("unsupported media type in data URI: %q", mediaType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image too large: %d bytes (max %d)", len(data), maxImageSize)
	}
	return &fetchedImage{data: data, ext: ext}, nil
}

// imageName picks the stored file name: the requested one, else the last
// URL segment, else a UUID with the detected extension.
func imageName(requested, raw, ext string) string {
	name := requested
	if name == "" && !strings.HasPrefix(raw, "data:") {
		if u, err := url.Parse(raw); err == nil {
			if base := path.Base(u.Path); strings.Contains(base, ".") {
				name = base
			}
		}
	}
	if name == "" {
		if ext == "" {
			ext = ".png"
		}
		return uuid.NewString() + ext
	}
	name = unsafeNameRe.ReplaceAllString(filepath.Base(name), "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return uuid.NewString() + ext
	}
	return name
}

// checkContent verifies the bytes really are the image type ext names.
func checkContent(data []byte, ext string) error {
	if ext == ".svg" {
		head := data[:min(len(data), 1024)]
		if !bytes.Contains(head, []byte("<svg")) {
			return errors.New("content is not an SVG document")
		}
		return nil
	}

	detected := http.DetectContentType(data)
	mediaType, _, _ := mime.ParseMediaType(detected)
	got := imageTypes[mediaType]
	switch ext {
	case ".jpg", ".jpeg":
		if got == ".jpg" {
			return nil
		}
	case ".png", ".gif", ".webp", ".ico":
		if got == ext {
			return nil
		}
	default:
		return fmt.Errorf("unsupported image extension %q (allowed: png, jpg, jpeg, gif, webp, svg, ico)", ext)
	}
	return fmt.Errorf("content does not match extension %s (detected %s)", ext, detected)
}

func (s *Server) addImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	img, err := s.images.load(ctx, raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := imageName(req.GetString("filename", ""), raw, img.ext)
	if err := checkContent(img.data, strings.ToLower(filepath.Ext(name))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.svc.AddImage(ctx, name, img.data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}
