package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestAppendAuditLine(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "auth.log")
    at := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

    for _, ev := range []AuthEvent{
        {Type: EventLoggedIn, UserID: 1, Email: "admin@example.com", Role: "admin", IP: "10.0.0.1", At: at},
        {Type: EventLoginFailed, Email: "who@example.com", At: at},
    } {
        body, err := json.Marshal(ev)
        require.NoError(t, err)
        require.NoError(t, AppendAuditLine(path, body))
    }

    data, err := os.ReadFile(path)
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    require.Len(t, lines, 2)
    assert.Equal(t, `[2026-05-04T10:30:00Z] user.logged_in | user_id=1 | email="admin@example.com" | role="admin" | ip="10.0.0.1"`, lines[0])
    assert.Contains(t, lines[1], "user.login_failed | user_id=0")
}

func TestAppendAuditLineRejectsGarbage(t *testing.T) {
    path := filepath.Join(t.TempDir(), "auth.log")
    assert.Error(t, AppendAuditLine(path, []byte("{not json")))
    assert.Error(t, AppendAuditLine(path, []byte(`{"user_id":1}`)))
    _, err := os.Stat(path)
    assert.True(t, os.IsNotExist(err))
}
