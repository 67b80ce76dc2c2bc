package queue

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendDecisionLog(t *testing.T) {
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	reason := ApplicationProcessedEvent{
		ApplicationID:   7,
		UserID:          3,
		Status:          "rejected",
		AdminID:         100,
		RejectionReason: "passport photo is unreadable",
		ProcessedAt:     "2025-06-01T12:00:00Z",
	}
	require.NoError(t, appendDecisionLog(reason))

	approved := reason
	approved.ApplicationID = 8
	approved.Status = "approved"
	approved.RejectionReason = ""
	require.NoError(t, appendDecisionLog(approved))

	data, err := os.ReadFile(filepath.Join("logs", "decisions.log"))
	require.NoError(t, err)

	lines := string(data)
	assert.Contains(t, lines, "application=7 user=3 status=rejected admin=100 reason=passport photo is unreadable")
	assert.Contains(t, lines, "application=8 user=3 status=approved admin=100")
}
