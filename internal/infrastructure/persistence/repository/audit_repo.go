package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/application/port"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/domain/entity"
	"github.com/navpuneet474-rgb/hostel-management-system-sub000/internal/infrastructure/persistence/sqlite"
)

// auditRow is the stored shape of an audit entry; list and map columns are JSON
type auditRow struct {
	ID             string         `db:"id"`
	CorrelationID  string         `db:"correlation_id"`
	ActorID        string         `db:"actor_id"`
	ActorRole      string         `db:"actor_role"`
	ConversationID string         `db:"conversation_id"`
	MessageID      string         `db:"message_id"`
	RequestType    string         `db:"request_type"`
	Decision       string         `db:"decision"`
	Code           string         `db:"code"`
	Reasoning      string         `db:"reasoning"`
	RuleIDs        string         `db:"rule_ids"`
	Fields         string         `db:"fields"`
	Verdict        sql.NullString `db:"verdict"`
	Confidence     float64        `db:"confidence"`
	RecordID       sql.NullInt64  `db:"record_id"`
	CreatedAt      time.Time      `db:"created_at"`
}

// AuditRepository implements port.AuditRepository. The table rejects
// updates and deletes, so the trail is append-only.
type AuditRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sqlite.DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *entity.AuditEntry) error {
	row, err := toAuditRow(entry)
	if err != nil {
		return err
	}

	_, err = r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, correlation_id, actor_id, actor_role, conversation_id, message_id,
			request_type, decision, code, reasoning, rule_ids, fields, verdict,
			confidence, record_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.CorrelationID, row.ActorID, row.ActorRole, row.ConversationID, row.MessageID,
		row.RequestType, row.Decision, row.Code, row.Reasoning, row.RuleIDs, row.Fields, row.Verdict,
		row.Confidence, row.RecordID, row.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("correlation_id", entry.CorrelationID),
			zap.String("code", string(entry.Code)),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// List returns entries matching filter, oldest first
func (r *AuditRepository) List(ctx context.Context, filter port.AuditFilter) ([]*entity.AuditEntry, error) {
	where := []string{"1=1"}
	var args []interface{}

	if filter.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.CorrelationID != "" {
		where = append(where, "correlation_id = ?")
		args = append(args, filter.CorrelationID)
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := `SELECT id, correlation_id, actor_id, actor_role, conversation_id, message_id,
		request_type, decision, code, reasoning, rule_ids, fields, verdict,
		confidence, record_id, created_at
		FROM audit_entries WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at, rowid`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []auditRow
	if err := r.db.Executor(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("Failed to list audit entries", zap.String("actor_id", filter.ActorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	entries := make([]*entity.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntity()
		if err != nil {
			return nil, fmt.Errorf("audit entry %s: %w", row.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func toAuditRow(e *entity.AuditEntry) (auditRow, error) {
	ruleIDs := e.RuleIDs
	if ruleIDs == nil {
		ruleIDs = []string{}
	}
	rules, err := json.Marshal(ruleIDs)
	if err != nil {
		return auditRow{}, fmt.Errorf("failed to encode rule ids: %w", err)
	}
	fields := e.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	fieldJSON, err := json.Marshal(fields)
	if err != nil {
		return auditRow{}, fmt.Errorf("failed to encode fields: %w", err)
	}

	row := auditRow{
		ID:             e.ID,
		CorrelationID:  e.CorrelationID,
		ActorID:        e.ActorID,
		ActorRole:      string(e.ActorRole),
		ConversationID: e.ConversationID,
		MessageID:      e.MessageID,
		RequestType:    string(e.RequestType),
		Decision:       string(e.Decision),
		Code:           string(e.Code),
		Reasoning:      e.Reasoning,
		RuleIDs:        string(rules),
		Fields:         string(fieldJSON),
		Confidence:     e.Confidence,
		CreatedAt:      e.CreatedAt.UTC(),
	}
	if e.Verdict != nil {
		v, err := json.Marshal(e.Verdict)
		if err != nil {
			return auditRow{}, fmt.Errorf("failed to encode verdict: %w", err)
		}
		row.Verdict = sql.NullString{String: string(v), Valid: true}
	}
	if e.RecordID > 0 {
		row.RecordID = sql.NullInt64{Int64: e.RecordID, Valid: true}
	}
	return row, nil
}

func (row auditRow) toEntity() (*entity.AuditEntry, error) {
	e := &entity.AuditEntry{
		ID:             row.ID,
		CorrelationID:  row.CorrelationID,
		ActorID:        row.ActorID,
		ActorRole:      entity.UserRole(row.ActorRole),
		ConversationID: row.ConversationID,
		MessageID:      row.MessageID,
		RequestType:    entity.RequestType(row.RequestType),
		Decision:       entity.AuditDecision(row.Decision),
		Code:           entity.AuditCode(row.Code),
		Reasoning:      row.Reasoning,
		Confidence:     row.Confidence,
		RecordID:       row.RecordID.Int64,
		CreatedAt:      row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.RuleIDs), &e.RuleIDs); err != nil {
		return nil, fmt.Errorf("decode rule ids: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Fields), &e.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if row.Verdict.Valid {
		var v entity.ApprovalVerdict
		if err := json.Unmarshal([]byte(row.Verdict.String), &v); err != nil {
			return nil, fmt.Errorf("decode verdict: %w", err)
		}
		e.Verdict = &v
	}
	return e, nil
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
