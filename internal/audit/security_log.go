// Package audit records HTTP-layer authorization denials. Violations are the
// only audit trail for denied financial/admin route access, so every record is
// written twice: one JSON line in a per-day file under the log directory, and
// one entry in the application logger.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventAccessDenied is the event tag on every violation record.
const EventAccessDenied = "ACCESS_DENIED"

// Violation is the wire format of a security-violation record, one JSON
// object per line.
type Violation struct {
	Timestamp         time.Time `json:"timestamp"`
	Event             string    `json:"event"`
	UserID            string    `json:"user_id"`
	UserEmail         string    `json:"user_email"`
	UserRole          string    `json:"user_role"`
	AttemptedResource string    `json:"attempted_resource"`
	Reason            string    `json:"reason"`
	IPAddress         string    `json:"ip_address"`
	UserAgent         string    `json:"user_agent"`
}

// SecurityLog appends violation records to date-partitioned files
// (security-YYYY-MM-DD.log) and mirrors each record to the application
// logger.
type SecurityLog struct {
	mu  sync.Mutex
	dir string
	log zerolog.Logger
	// now is swapped in tests to pin the partition date.
	now func() time.Time
}

func NewSecurityLog(dir string, log zerolog.Logger) *SecurityLog {
	return &SecurityLog{dir: dir, log: log, now: time.Now}
}

// Record writes the violation to today's partition and to the application
// log. The timestamp and event tag are stamped here; callers supply the rest.
func (s *SecurityLog) Record(v Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	v.Timestamp = now
	v.Event = EventAccessDenied

	s.log.Warn().
		Str("event", v.Event).
		Str("user_id", v.UserID).
		Str("user_email", v.UserEmail).
		Str("user_role", v.UserRole).
		Str("attempted_resource", v.AttemptedResource).
		Str("reason", v.Reason).
		Str("ip_address", v.IPAddress).
		Str("user_agent", v.UserAgent).
		Msg("security violation")

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("audit: create log dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("security-%s.log", now.Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", path, err)
	}
	defer f.Close()

	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("audit: encode violation: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write violation: %w", err)
	}
	return nil
}
