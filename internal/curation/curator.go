package curation

import (
	"bytes"
	"context"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "harvestguard/internal/errors"
	"harvestguard/internal/imaging"
	"harvestguard/internal/logger"
)

// ReferenceSample is one curated image retained for calibration.
// Read-only after creation.
type ReferenceSample struct {
	Group       string
	Name        string
	Fingerprint string
}

// Summary reports what one curation run did with the candidate tree.
type Summary struct {
	Processed      int
	Skipped        int
	LowQuality     int
	Duplicates     int
	DecodeFailures int
	CapReached     int
}

// Options configures one curation run.
type Options struct {
	MinWidth    int
	MinHeight   int
	MaxPerGroup int // 0 = no cap
}

// DefaultOptions returns the curation settings the original reference
// corpus was built with.
func DefaultOptions() Options {
	return Options{MinWidth: 64, MinHeight: 64, MaxPerGroup: 30}
}

// Curator builds the calibration corpus from a grouped candidate tree
// (root/category/brand/image). Dedup state is scoped to one Curator
// value, so two runs never interfere.
type Curator struct {
	normalizer *imaging.Normalizer
	store      ReferenceStore
	opts       Options
	seen       map[string]struct{}
}

// NewCurator creates a curator with fresh dedup state.
func NewCurator(normalizer *imaging.Normalizer, store ReferenceStore, opts Options) *Curator {
	if opts.MinWidth <= 0 || opts.MinHeight <= 0 {
		def := DefaultOptions()
		opts.MinWidth, opts.MinHeight = def.MinWidth, def.MinHeight
	}
	return &Curator{
		normalizer: normalizer,
		store:      store,
		opts:       opts,
		seen:       make(map[string]struct{}),
	}
}

// Run walks the candidate tree and writes accepted samples to the store.
// Rejections (undecodable, undersized, duplicate) are logged and skipped,
// never fatal. Samples are accepted in directory-listing order up to the
// per-group cap. Returned samples follow acceptance order.
func (c *Curator) Run(ctx context.Context, root string) ([]ReferenceSample, Summary, error) {
	var samples []ReferenceSample
	var sum Summary

	groups, err := listGroups(root)
	if err != nil {
		return nil, sum, apperrors.NewValidationError("failed to read candidate tree", err)
	}

	for _, group := range groups {
		accepted := 0
		files, err := listImageFiles(filepath.Join(root, group))
		if err != nil {
			logger.WithError(err).WithField("group", group).Warn("Skipping unreadable group")
			continue
		}

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return samples, sum, err
			}
			if c.opts.MaxPerGroup > 0 && accepted >= c.opts.MaxPerGroup {
				sum.CapReached++
				continue
			}

			sample, err := c.curateFile(ctx, group, filepath.Join(root, group, file))
			if err != nil {
				sum.Skipped++
				switch {
				case apperrors.IsType(err, apperrors.ErrorTypeLowQuality):
					sum.LowQuality++
				case apperrors.IsType(err, apperrors.ErrorTypeDuplicate):
					sum.Duplicates++
				case apperrors.IsType(err, apperrors.ErrorTypeDecode):
					sum.DecodeFailures++
				default:
					return samples, sum, err
				}
				logger.WithError(err).WithFields(logrus.Fields{
					"group": group,
					"file":  file,
				}).Debug("Rejected candidate sample")
				continue
			}

			samples = append(samples, sample)
			accepted++
			sum.Processed++
		}
	}

	logger.WithFields(logrus.Fields{
		"accepted":        sum.Processed,
		"skipped":         sum.Skipped,
		"low_quality":     sum.LowQuality,
		"duplicates":      sum.Duplicates,
		"decode_failures": sum.DecodeFailures,
	}).Info("Reference corpus curation complete")

	return samples, sum, nil
}

func (c *Curator) curateFile(ctx context.Context, group, path string) (ReferenceSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReferenceSample{}, apperrors.NewDecodeError("failed to read candidate file", err)
	}

	img, err := c.normalizer.Decode(data)
	if err != nil {
		return ReferenceSample{}, err
	}

	bounds := img.Bounds()
	if bounds.Dx() < c.opts.MinWidth || bounds.Dy() < c.opts.MinHeight {
		return ReferenceSample{}, apperrors.NewLowQualityError("image below minimum dimensions", nil)
	}

	fp := imaging.Fingerprint(img)
	if _, dup := c.seen[fp]; dup {
		return ReferenceSample{}, apperrors.NewDuplicateError("duplicate pixel fingerprint", nil)
	}
	c.seen[fp] = struct{}{}

	// Canonical form: target resolution, JPEG.
	resized := c.normalizer.ResizeRGBA(img)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90}); err != nil {
		return ReferenceSample{}, apperrors.NewInternalError("failed to encode reference sample", err)
	}

	name := stem(path) + ".jpg"
	if err := c.store.Put(ctx, group, name, buf.Bytes()); err != nil {
		return ReferenceSample{}, apperrors.NewInternalError("failed to store reference sample", err)
	}

	return ReferenceSample{Group: group, Name: name, Fingerprint: fp}, nil
}

// listGroups returns category/brand group keys, two levels deep, in
// lexical order.
func listGroups(root string) ([]string, error) {
	categories, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var groups []string
	for _, cat := range categories {
		if !cat.IsDir() {
			continue
		}
		brands, err := os.ReadDir(filepath.Join(root, cat.Name()))
		if err != nil {
			return nil, err
		}
		for _, brand := range brands {
			if brand.IsDir() {
				groups = append(groups, filepath.Join(cat.Name(), brand.Name()))
			}
		}
	}
	return groups, nil
}

func listImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, e.Name())
		}
	}
	return files, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
