package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"estoque/internal/core/id"
	"estoque/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is used when the configured threshold is not positive.
const DefaultCompressThreshold = 1024

var _ audit.Sink = (*AuditSink)(nil)

// AuditSink stores audit entries in sys_audit. Snapshots above the threshold
// are zstd-compressed into snapshot_compressed.
type AuditSink struct {
	txManager         *TxManager
	codec             *snapshotCodec
	compressThreshold int
}

// NewAuditSink creates an audit sink.
func NewAuditSink(txManager *TxManager, compressThreshold int) (*AuditSink, error) {
	codec, err := newSnapshotCodec()
	if err != nil {
		return nil, err
	}
	if compressThreshold <= 0 {
		compressThreshold = DefaultCompressThreshold
	}
	return &AuditSink{
		txManager:         txManager,
		codec:             codec,
		compressThreshold: compressThreshold,
	}, nil
}

// Log records an audit entry inside the caller's transaction, if any.
func (s *AuditSink) Log(ctx context.Context, entry audit.Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	plain, compressed, algo := s.codec.pack(entry.Snapshot, s.compressThreshold)

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, operator_id, request_id,
			snapshot, snapshot_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action,
		entry.OperatorID, entry.RequestID,
		plain, compressed, algo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History retrieves the audit trail of an entity, newest first.
func (s *AuditSink) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	const sql = `
		SELECT id, entity_type, entity_id, action, operator_id, request_id,
			   snapshot, snapshot_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e          audit.Entry
			plain      []byte
			compressed []byte
			algo       CompressionAlgo
		)
		err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.OperatorID, &e.RequestID,
			&plain, &compressed, &algo, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		if e.Snapshot, err = s.codec.unpack(plain, compressed, algo); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// snapshotCodec compresses audit snapshots. EncodeAll/DecodeAll are safe for
// concurrent use, so one encoder and decoder serve the whole process.
type snapshotCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newSnapshotCodec() (*snapshotCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &snapshotCodec{encoder: encoder, decoder: decoder}, nil
}

// pack returns exactly one of plain or compressed.
func (c *snapshotCodec) pack(snapshot []byte, threshold int) (plain, compressed []byte, algo CompressionAlgo) {
	if len(snapshot) > threshold {
		return nil, c.encoder.EncodeAll(snapshot, nil), CompressionZstd
	}
	return snapshot, nil, CompressionNone
}

func (c *snapshotCodec) unpack(plain, compressed []byte, algo CompressionAlgo) ([]byte, error) {
	if algo != CompressionZstd || len(compressed) == 0 {
		return plain, nil
	}
	out, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	return out, nil
}
