package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

// CallRecord is one executed RPC call as stored in the journal: the verb,
// its positional arguments, and how the node answered.
type CallRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Method        string         `gorm:"column:method;type:varchar(255);not null;index:idx_call_records_method" json:"method"`
	Params        pq.StringArray `gorm:"type:text[];column:params" json:"params"`
	Result        []byte         `gorm:"column:result;type:text" json:"result,omitempty"`
	NodeErrorCode *int           `gorm:"column:node_error_code" json:"node_error_code,omitempty"`
	ErrorMessage  string         `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	DurationMS    int64          `gorm:"column:duration_ms;not null" json:"duration_ms"`
	CreatedAt     time.Time      `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for the CallRecord model.
func (CallRecord) TableName() string {
	return "call_records"
}

// CallStore journals RPC calls. It hangs off the executor as a passive
// CallObserver: a journaling failure is logged and dropped, never surfaced
// into the call it describes.
type CallStore struct {
	db *gorm.DB
	lg log.Logger
}

var _ rpcclient.CallObserver = (*CallStore)(nil)

// NewCallStore creates a new CallStore instance.
func NewCallStore(db *gorm.DB, lg log.Logger) *CallStore {
	if lg == nil {
		lg = log.NewNoopLogger()
	}
	return &CallStore{db: db, lg: lg.WithName("callstore")}
}

// ObserveCall implements rpcclient.CallObserver.
func (s *CallStore) ObserveCall(method string, params []any, result json.RawMessage, err error, elapsed time.Duration) {
	record := &CallRecord{
		Method:     method,
		Params:     stringifyParams(params),
		Result:     result,
		DurationMS: elapsed.Milliseconds(),
	}
	if err != nil {
		record.ErrorMessage = err.Error()
		if ne, ok := rpcclient.IsNodeError(err); ok {
			code := ne.Code
			record.NodeErrorCode = &code
		}
	}

	if dbErr := s.db.Create(record).Error; dbErr != nil {
		s.lg.Error("failed to journal call", "method", method, "error", dbErr)
	}
}

// List retrieves journaled calls, optionally filtered by method, newest
// first by default. Ties on created_at break on id so paginated reads are
// stable.
func (s *CallStore) List(ctx context.Context, method *string, options *ListOptions) ([]CallRecord, error) {
	query := applyListOptions(s.db.WithContext(ctx), "created_at", SortTypeDescending, options)
	query = query.Order("id DESC")
	if method != nil {
		query = query.Where("method = ?", *method)
	}

	var records []CallRecord
	err := query.Find(&records).Error
	return records, err
}

// Count returns the number of journaled calls, optionally per method.
func (s *CallStore) Count(ctx context.Context, method *string) (int64, error) {
	query := s.db.WithContext(ctx).Model(&CallRecord{})
	if method != nil {
		query = query.Where("method = ?", *method)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

// stringifyParams renders positional arguments as their JSON forms, one
// string per argument, so the journal shows exactly what went on the wire.
func stringifyParams(params []any) pq.StringArray {
	out := make(pq.StringArray, 0, len(params))
	for _, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			out = append(out, "<unencodable>")
			continue
		}
		out = append(out, string(b))
	}
	return out
}
