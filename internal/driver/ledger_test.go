package driver

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/internal/common/util"
)

func TestLedgerRecordAndAcknowledge(t *testing.T) {
	ledger := NewAckLedger(&util.DummyClock{T: time.Now()})
	key := AckKey{ID: "task-1", UUID: "uuid-1"}

	assert.True(t, ledger.Record(key, "payload"))
	assert.True(t, ledger.Has(key))
	assert.Equal(t, 1, ledger.Size())

	assert.True(t, ledger.Acknowledge(key))
	assert.False(t, ledger.Has(key))
	assert.Equal(t, 0, ledger.Size())
}

func TestLedgerAcknowledgeIsIdempotent(t *testing.T) {
	ledger := NewAckLedger(&util.DummyClock{T: time.Now()})
	key := AckKey{ID: "task-1", UUID: "uuid-1"}

	assert.False(t, ledger.Acknowledge(key), "acknowledging an unknown key is a no-op")

	require.True(t, ledger.Record(key, nil))
	assert.True(t, ledger.Acknowledge(key))
	assert.False(t, ledger.Acknowledge(key), "second acknowledge is a no-op")
}

func TestLedgerRejectsDuplicatePending(t *testing.T) {
	ledger := NewAckLedger(&util.DummyClock{T: time.Now()})
	key := AckKey{ID: "task-1", UUID: "uuid-1"}

	assert.True(t, ledger.Record(key, nil))
	assert.False(t, ledger.Record(key, nil), "redelivery while pending is suppressed")
}

func TestLedgerRejectsRecentlyAcknowledged(t *testing.T) {
	ledger := NewAckLedger(&util.DummyClock{T: time.Now()})
	key := AckKey{ID: "task-1", UUID: "uuid-1"}

	require.True(t, ledger.Record(key, nil))
	require.True(t, ledger.Acknowledge(key))

	assert.False(t, ledger.Record(key, nil), "redelivery after acknowledgement is suppressed")
}

func TestLedgerKeysAreExactIdentity(t *testing.T) {
	ledger := NewAckLedger(&util.DummyClock{T: time.Now()})

	// Two updates for the same task with different uuids are distinct.
	assert.True(t, ledger.Record(AckKey{ID: "task-1", UUID: "uuid-1"}, nil))
	assert.True(t, ledger.Record(AckKey{ID: "task-1", UUID: "uuid-2"}, nil))

	assert.True(t, ledger.Acknowledge(AckKey{ID: "task-1", UUID: "uuid-1"}))
	assert.True(t, ledger.Has(AckKey{ID: "task-1", UUID: "uuid-2"}))
}

func TestLedgerPendingSnapshot(t *testing.T) {
	now := time.Now()
	ledger := NewAckLedger(&util.DummyClock{T: now})

	for i := 0; i < 3; i++ {
		require.True(t, ledger.Record(AckKey{ID: fmt.Sprintf("task-%d", i), UUID: "u"}, i))
	}

	pending := ledger.Pending()
	assert.Len(t, pending, 3)
	for _, entry := range pending {
		assert.Equal(t, now, entry.SentAt)
		assert.Equal(t, 0, entry.RetryCount)
	}

	// The snapshot is a copy: mutating it does not touch the ledger.
	pending[0].RetryCount = 99
	for _, entry := range ledger.Pending() {
		assert.Equal(t, 0, entry.RetryCount)
	}
}

func TestLedgerMarkRetried(t *testing.T) {
	start := time.Now()
	clock := &util.DummyClock{T: start}
	ledger := NewAckLedger(clock)
	key := AckKey{ID: "task-1", UUID: "uuid-1"}

	require.True(t, ledger.Record(key, nil))

	clock.T = start.Add(time.Minute)
	ledger.MarkRetried(key)

	pending := ledger.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Equal(t, start.Add(time.Minute), pending[0].SentAt)
}
