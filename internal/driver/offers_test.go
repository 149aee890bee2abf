package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverproject/drover/pkg/api"
)

func offer(id, agent string) api.Offer {
	return api.Offer{
		ID:      api.OfferID{Value: id},
		AgentID: api.AgentID{Value: agent},
	}
}

func TestOfferConsumeRemovesOffer(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.Add([]api.Offer{offer("o1", "a1")})

	consumed, err := tracker.Consume([]api.OfferID{{Value: "o1"}})
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	assert.Equal(t, "o1", consumed[0].ID.Value)

	// Single use: a second consume of the same id fails.
	_, err = tracker.Consume([]api.OfferID{{Value: "o1"}})
	var unknown *api.ErrOfferUnknown
	assert.ErrorAs(t, err, &unknown)
}

func TestOfferConsumeEmptyList(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.Add([]api.Offer{offer("o1", "a1")})

	// Consuming nothing is a reported condition, never a crash, and leaves
	// held offers alone.
	var violation *api.ErrContractViolation
	_, err := tracker.Consume(nil)
	require.ErrorAs(t, err, &violation)
	_, err = tracker.ConsumeAny([]api.OfferID{})
	require.ErrorAs(t, err, &violation)
	_, err = tracker.ConsumeInverse(nil)
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, 1, tracker.Size())
}

func TestOfferConsumeUnknown(t *testing.T) {
	tracker := NewOfferTracker()
	_, err := tracker.Consume([]api.OfferID{{Value: "never-seen"}})
	var unknown *api.ErrOfferUnknown
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "never-seen", unknown.OfferID)
}

func TestOfferConsumeMixedAgentsFails(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.Add([]api.Offer{offer("o1", "a1"), offer("o2", "a2")})

	_, err := tracker.Consume([]api.OfferID{{Value: "o1"}, {Value: "o2"}})
	var violation *api.ErrContractViolation
	require.ErrorAs(t, err, &violation)
	assert.False(t, violation.Fatal)

	// Nothing was consumed by the failed call.
	assert.Equal(t, 2, tracker.Size())
	_, err = tracker.Consume([]api.OfferID{{Value: "o1"}})
	assert.NoError(t, err)
}

func TestOfferConsumeSameAgentAggregates(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.Add([]api.Offer{offer("o1", "a1"), offer("o2", "a1")})

	consumed, err := tracker.Consume([]api.OfferID{{Value: "o1"}, {Value: "o2"}})
	require.NoError(t, err)
	assert.Len(t, consumed, 2)
	assert.Equal(t, 0, tracker.Size())
}

func TestOfferConsumeAnyIgnoresAgents(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.Add([]api.Offer{offer("o1", "a1"), offer("o2", "a2")})

	// Declines are not aggregated, so offers on different agents are fine.
	consumed, err := tracker.ConsumeAny([]api.OfferID{{Value: "o1"}, {Value: "o2"}})
	require.NoError(t, err)
	assert.Len(t, consumed, 2)
}

func TestOfferRescind(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.Add([]api.Offer{offer("o1", "a1")})

	assert.True(t, tracker.Rescind(api.OfferID{Value: "o1"}))
	assert.False(t, tracker.Rescind(api.OfferID{Value: "o1"}))

	_, err := tracker.Consume([]api.OfferID{{Value: "o1"}})
	var unknown *api.ErrOfferUnknown
	assert.ErrorAs(t, err, &unknown)
}

func TestOfferInvalidateAll(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.Add([]api.Offer{offer("o1", "a1"), offer("o2", "a2")})
	tracker.AddInverse([]api.InverseOffer{{ID: api.OfferID{Value: "i1"}}})

	assert.Equal(t, 3, tracker.InvalidateAll())
	assert.Equal(t, 0, tracker.Size())

	_, err := tracker.ConsumeInverse([]api.OfferID{{Value: "i1"}})
	var unknown *api.ErrOfferUnknown
	assert.ErrorAs(t, err, &unknown)
}

func TestInverseOffers(t *testing.T) {
	tracker := NewOfferTracker()
	tracker.AddInverse([]api.InverseOffer{
		{ID: api.OfferID{Value: "i1"}},
		{ID: api.OfferID{Value: "i2"}},
	})

	assert.True(t, tracker.RescindInverse(api.OfferID{Value: "i2"}))

	consumed, err := tracker.ConsumeInverse([]api.OfferID{{Value: "i1"}})
	require.NoError(t, err)
	assert.Len(t, consumed, 1)
}
