// Package imagecompress re-encodes oversized article images as JPEG.
package imagecompress

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"AutoBlogger/internal/logging"
)

// Result describes one compressed file.
type Result struct {
	Source string
	Output string
	Before int64
	After  int64
}

// Compressor rewrites JPEG and PNG files above a size threshold.
type Compressor struct {
	quality   int
	threshold int64
	logger    *slog.Logger
}

// New builds a compressor; thresholdKB is compared against the file size.
func New(quality, thresholdKB int, logger *slog.Logger) *Compressor {
	if quality <= 0 || quality > 100 {
		quality = 65
	}
	if thresholdKB < 0 {
		thresholdKB = 0
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Compressor{quality: quality, threshold: int64(thresholdKB) * 1024, logger: logger}
}

// Dir compresses every eligible image directly inside dir. A file that
// fails to decode is logged and skipped.
func (c *Compressor) Dir(dir string) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return results, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() <= c.threshold {
			c.logger.Debug("skip image under threshold", "file", entry.Name(), "bytes", info.Size())
			continue
		}

		res, err := c.File(path)
		if err != nil {
			c.logger.Warn("compress image failed", "file", entry.Name(), "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

// File compresses one image. PNG sources are written as .jpg next to the
// original, which is then removed.
func (c *Compressor) File(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}

	img, err := imaging.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", path, err)
	}

	output := path
	isPNG := strings.EqualFold(filepath.Ext(path), ".png")
	if isPNG {
		img = flatten(img)
		output = strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
	}

	if err := imaging.Save(img, output, imaging.JPEGQuality(c.quality)); err != nil {
		return Result{}, fmt.Errorf("encode %s: %w", output, err)
	}
	if isPNG && output != path {
		if err := os.Remove(path); err != nil {
			return Result{}, fmt.Errorf("remove %s: %w", path, err)
		}
	}

	after, err := os.Stat(output)
	if err != nil {
		return Result{}, err
	}
	res := Result{Source: path, Output: output, Before: info.Size(), After: after.Size()}
	c.logger.Info("image compressed", "file", filepath.Base(output), "before", res.Before, "after", res.After)
	return res, nil
}

// flatten paints img over a white background so transparent areas do not
// turn black in the JPEG.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
