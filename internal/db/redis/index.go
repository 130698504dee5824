package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/bnccrag/internal/db"
)

// IndexExists reports whether an FT index is present (FT.INFO).
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// IndexDocCount returns num_docs reported by FT.INFO.
func (s *Store) IndexDocCount(ctx context.Context, name string) (int, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") || isRedisErr(err, "not found") {
			return 0, &db.Error{Op: db.OpIndexInfo, Err: db.ErrIndexNotFound}
		}
		return 0, &db.Error{Op: db.OpIndexInfo, Err: err}
	}

	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil || key != "num_docs" {
			continue
		}
		if n, err := raw[i+1].AsInt64(); err == nil {
			return int(n), nil
		}
		str, err := raw[i+1].ToString()
		if err != nil {
			break
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			break
		}
		return int(f), nil
	}
	return 0, nil
}
