package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hazard/internal/biz"
	"hazard/internal/pkg/hazard"
	"hazard/internal/pkg/pagination"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
)

const analysisColumns = `id, media_url, media_type, file_hash, labels_fingerprint, phash,
	frames_sampled, description, danger_zone, top_hazard_score, hazard_analysis,
	captured_at, latitude, longitude, created_at`

type analysisRepo struct {
	data *Data
	log  *log.Helper
}

// NewAnalysisRepo creates a new AnalysisRepo.
func NewAnalysisRepo(data *Data, logger log.Logger) biz.AnalysisRepo {
	return &analysisRepo{
		data: data,
		log:  log.NewHelper(log.With(logger, "module", "data/analysis")),
	}
}

// scoreRow keeps ranking order inside jsonb, which does not preserve object key order.
type scoreRow struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

func encodeScores(scores hazard.RankedScores) ([]byte, error) {
	rows := make([]scoreRow, len(scores))
	for i, s := range scores {
		rows[i] = scoreRow{Label: s.Label, Probability: s.Probability}
	}
	return json.Marshal(rows)
}

func decodeScores(data []byte) (hazard.RankedScores, error) {
	var rows []scoreRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	scores := make(hazard.RankedScores, len(rows))
	for i, r := range rows {
		scores[i] = hazard.Score{Label: r.Label, Probability: r.Probability}
	}
	return scores, nil
}

func (r *analysisRepo) Save(ctx context.Context, rec *biz.AnalysisRecord) error {
	if r.data.Pool == nil {
		return biz.ErrHistoryUnavailable
	}
	scores, err := encodeScores(rec.HazardAnalysis)
	if err != nil {
		return err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = r.data.Pool.Exec(ctx, `
		INSERT INTO analyses (`+analysisColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.MediaURL, rec.MediaType.String(), rec.FileHash, rec.LabelsFingerprint, rec.PHash,
		rec.FramesSampled, rec.Description, rec.DangerZone.Name(), rec.TopHazardScore, scores,
		rec.CapturedAt, rec.Latitude, rec.Longitude, createdAt,
	)
	return err
}

func (r *analysisRepo) FindByFileHash(ctx context.Context, fileHash string, mediaType biz.MediaType, fingerprint string) (*biz.AnalysisRecord, error) {
	if r.data.Pool == nil {
		return nil, biz.ErrHistoryUnavailable
	}
	row := r.data.Pool.QueryRow(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE file_hash = $1 AND media_type = $2 AND labels_fingerprint = $3
		ORDER BY created_at DESC
		LIMIT 1`,
		fileHash, mediaType.String(), fingerprint,
	)
	rec, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *analysisRepo) Get(ctx context.Context, id string) (*biz.AnalysisRecord, error) {
	if r.data.Pool == nil {
		return nil, biz.ErrHistoryUnavailable
	}
	row := r.data.Pool.QueryRow(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = $1`, id)
	rec, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // Not found
	}
	return rec, err
}

func (r *analysisRepo) List(ctx context.Context, q *biz.HistoryQuery) ([]*biz.AnalysisRecord, error) {
	if r.data.Pool == nil {
		return nil, biz.ErrHistoryUnavailable
	}
	query, args := buildListQuery(q)
	rows, err := r.data.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*biz.AnalysisRecord, 0, q.Limit)
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *analysisRepo) Ping(ctx context.Context) error {
	if r.data.Pool == nil {
		return biz.ErrHistoryUnavailable
	}
	return r.data.Pool.Ping(ctx)
}

// buildListQuery renders the keyset page query, newest first.
func buildListQuery(q *biz.HistoryQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	if q.After != nil {
		where = append(where, pagination.SQLCursorCondition("created_at", pagination.DESC, len(args)+1))
		args = append(args, q.After.CreatedAt, q.After.ID)
	}
	if q.Zone != nil {
		args = append(args, q.Zone.Name())
		where = append(where, fmt.Sprintf("danger_zone = $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + analysisColumns + " FROM analyses")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, q.Limit)
	fmt.Fprintf(&sb, " ORDER BY %s LIMIT $%d", pagination.SQLOrderBy("created_at", pagination.DESC), len(args))
	return sb.String(), args
}

func scanAnalysis(row pgx.Row) (*biz.AnalysisRecord, error) {
	var (
		rec       biz.AnalysisRecord
		mediaType string
		zone      string
		scores    []byte
	)
	err := row.Scan(
		&rec.ID, &rec.MediaURL, &mediaType, &rec.FileHash, &rec.LabelsFingerprint, &rec.PHash,
		&rec.FramesSampled, &rec.Description, &zone, &rec.TopHazardScore, &scores,
		&rec.CapturedAt, &rec.Latitude, &rec.Longitude, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.MediaType = biz.MediaType(mediaType)
	rec.DangerZone, _ = hazard.ParseZone(zone)
	if rec.HazardAnalysis, err = decodeScores(scores); err != nil {
		return nil, fmt.Errorf("decode hazard_analysis of %s: %w", rec.ID, err)
	}
	return &rec, nil
}
