package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector()

	c.RecordEnvelopeBuild()
	c.RecordEnvelopeVerify(true, false, 5*time.Millisecond)
	c.RecordEnvelopeVerify(false, true, 2*time.Millisecond)
	c.RecordRoute("finance", 1*time.Millisecond)
	c.RecordEscalation()
	c.RecordRouteOutcome(true)
	c.RecordAdmission(true)
	c.RecordAdmission(false)
	c.RecordHeartbeat()
	c.RecordDocument(true)

	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap.EnvelopesBuilt)
	assert.Equal(t, int64(2), snap.EnvelopesVerified)
	assert.Equal(t, int64(1), snap.EnvelopeFailures)
	assert.Equal(t, int64(1), snap.EnvelopeReplays)
	assert.Equal(t, int64(1), snap.RoutesIssued)
	assert.Equal(t, int64(1), snap.Escalations)
	assert.Equal(t, int64(1), snap.RoutesCompleted)
	assert.Equal(t, int64(1), snap.AgentsAdmitted)
	assert.Equal(t, int64(1), snap.AgentsRejected)
	assert.Equal(t, int64(1), snap.HeartbeatsReceived)
	assert.Equal(t, int64(1), snap.DocumentsIngested)
	assert.InDelta(t, 1.0, snap.EscalationRate(), 0.001)
}

func TestGlobalCollector(t *testing.T) {
	assert.NotNil(t, GetGlobalCollector())
}
