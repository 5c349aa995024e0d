package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogger_RecordsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, InitAuditLogger(path))
	defer GetAuditLogger().Close()

	RecordToolAudit(context.Background(), "weather", "query-1", "success", map[string]interface{}{
		"latency_ms": int64(12),
	})
	RecordPolicyAudit(context.Background(), "web_search", "query-1", "domain 'malicious.com' is blocked")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"action":"execute:weather"`)
	assert.Contains(t, out, `"status":"success"`)
	assert.Contains(t, out, `"action":"reject:web_search"`)
	assert.Contains(t, out, `"status":"rejected"`)
	assert.Contains(t, out, "malicious.com")
}
