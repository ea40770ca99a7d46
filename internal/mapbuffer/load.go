package mapbuffer

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mapstore/internal/world"
)

// QuadLoad describes what LoadQuad found in a quad file.
type QuadLoad struct {
	Path    string
	Loaded  int // records made resident
	Skipped int // records dropped by the parser or refused by the buffer
}

// LoadQuadContaining makes every chunk stored in the quad file holding c
// resident. It returns an error wrapping ErrMiss when no file exists or the
// file could not be read; such failures are logged, never propagated as-is.
func (b *Buffer) LoadQuadContaining(c world.ChunkCoord) error {
	_, err := b.LoadQuad(c.Quad())
	return err
}

// LoadQuad is LoadQuadContaining addressed by quad, reporting how many
// records of the file were adopted.
func (b *Buffer) LoadQuad(q world.QuadCoord) (QuadLoad, error) {
	path, err := b.locateQuadFile(q)
	if err != nil {
		b.metrics.QuadLoads.WithLabelValues(loadResultMiss).Inc()
		return QuadLoad{}, err
	}

	load := QuadLoad{Path: path}
	logger := b.logger.With(zap.Stringer("quad", q), zap.String("path", path))
	records, err := ReadQuadFile(path, func(err error) {
		load.Skipped++
		b.metrics.Anomalies.WithLabelValues(anomalyStructural).Inc()
		logger.Warn("skipping malformed quad record", zap.Error(err))
	})
	if err != nil {
		logger.Error("failed to load quad", zap.Error(err))
	}
	// Records parsed before a read error are still kept.
	for _, rec := range records {
		if b.adoptRecord(q, rec, logger) {
			load.Loaded++
		} else {
			load.Skipped++
		}
	}
	b.metrics.ChunksLoaded.Add(float64(load.Loaded))
	if err != nil {
		b.metrics.QuadLoads.WithLabelValues(loadResultError).Inc()
		return load, errors.Wrapf(ErrMiss, "load quad %v: %v", q, err)
	}
	b.metrics.QuadLoads.WithLabelValues(loadResultLoaded).Inc()
	return load, nil
}

func (b *Buffer) adoptRecord(q world.QuadCoord, rec Record, logger *zap.Logger) bool {
	if rec.Coord.Quad() != q {
		b.metrics.Anomalies.WithLabelValues(anomalyStructural).Inc()
		logger.Warn("skipping quad record", zap.Stringer("chunk", rec.Coord), zap.Error(ErrForeignRecord))
		return false
	}
	chunk, err := b.codec.Decode(rec.Content, rec.Version, rec.Coord)
	if err != nil {
		b.metrics.Anomalies.WithLabelValues(anomalyStructural).Inc()
		logger.Warn("skipping undecodable chunk",
			zap.Stringer("chunk", rec.Coord), zap.Int("version", rec.Version), zap.Error(err))
		return false
	}
	if !b.Insert(rec.Coord, chunk) {
		b.metrics.Anomalies.WithLabelValues(anomalyDuplicate).Inc()
		logger.Warn("chunk was already loaded", zap.Stringer("chunk", rec.Coord), zap.Error(ErrDuplicate))
		return false
	}
	return true
}

// locateQuadFile returns the canonical path of q, or the legacy path when
// only that one exists.
func (b *Buffer) locateQuadFile(q world.QuadCoord) (string, error) {
	root := b.env.WorldRoot()
	canonical := QuadPath(root, q)
	ok, err := fileExists(canonical)
	if err != nil {
		b.logger.Error("failed to stat quad file", zap.String("path", canonical), zap.Error(err))
		return "", errors.Wrapf(ErrMiss, "quad %v", q)
	}
	if ok {
		return canonical, nil
	}
	legacy := LegacyQuadPath(root, q)
	if legacy == canonical {
		return "", errors.Wrapf(ErrMiss, "quad %v", q)
	}
	ok, err = fileExists(legacy)
	if err != nil {
		b.logger.Error("failed to stat quad file", zap.String("path", legacy), zap.Error(err))
		return "", errors.Wrapf(ErrMiss, "quad %v", q)
	}
	if !ok {
		return "", errors.Wrapf(ErrMiss, "quad %v", q)
	}
	return legacy, nil
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}
