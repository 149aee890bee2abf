package driver

import (
	"sync"

	"github.com/droverproject/drover/pkg/api"
)

// OfferTracker holds the offers and inverse offers currently valid for one
// driver. An offer enters on receipt from the master and leaves in exactly
// one of three ways: it is rescinded, it is consumed by a terminal action
// (accept, launch or decline), or the connection drops and every held offer
// is invalidated wholesale. A departed offer id is never usable again.
type OfferTracker struct {
	mu      sync.Mutex
	offers  map[string]api.Offer
	inverse map[string]api.InverseOffer
}

func NewOfferTracker() *OfferTracker {
	return &OfferTracker{
		offers:  map[string]api.Offer{},
		inverse: map[string]api.InverseOffer{},
	}
}

func (t *OfferTracker) Add(offers []api.Offer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, offer := range offers {
		t.offers[offer.ID.Value] = offer
	}
}

func (t *OfferTracker) AddInverse(offers []api.InverseOffer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, offer := range offers {
		t.inverse[offer.ID.Value] = offer
	}
}

// Rescind removes an offer on the master's say-so. It reports whether the
// offer was still held; false means it was already consumed or never known,
// which is normal (rescind races with accept).
func (t *OfferTracker) Rescind(id api.OfferID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.offers[id.Value]
	delete(t.offers, id.Value)
	return ok
}

func (t *OfferTracker) RescindInverse(id api.OfferID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inverse[id.Value]
	delete(t.inverse, id.Value)
	return ok
}

// Consume validates and removes the named offers for use in an accept or
// launch. Every id must be currently held, and when more than one offer is
// named they must all reference the same agent, since their resources will
// be aggregated into a single accept. On any failure nothing is consumed.
func (t *OfferTracker) Consume(ids []api.OfferID) ([]api.Offer, error) {
	return t.consume(ids, true)
}

// ConsumeAny validates and removes offers without the same-agent constraint.
// Used by declines, where nothing is aggregated.
func (t *OfferTracker) ConsumeAny(ids []api.OfferID) ([]api.Offer, error) {
	return t.consume(ids, false)
}

func (t *OfferTracker) consume(ids []api.OfferID, sameAgent bool) ([]api.Offer, error) {
	if len(ids) == 0 {
		return nil, &api.ErrContractViolation{Message: "no offer ids named"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	consumed := make([]api.Offer, 0, len(ids))
	for _, id := range ids {
		offer, ok := t.offers[id.Value]
		if !ok {
			return nil, &api.ErrOfferUnknown{OfferID: id.Value}
		}
		consumed = append(consumed, offer)
	}
	if sameAgent {
		for _, offer := range consumed[1:] {
			if offer.AgentID != consumed[0].AgentID {
				return nil, &api.ErrContractViolation{
					Message: "offers in a single accept or launch must all reference the same agent",
				}
			}
		}
	}
	for _, id := range ids {
		delete(t.offers, id.Value)
	}
	return consumed, nil
}

// ConsumeInverse validates and removes inverse offers for an accept or
// decline. Inverse offers are not aggregated, so no same-agent constraint
// applies.
func (t *OfferTracker) ConsumeInverse(ids []api.OfferID) ([]api.InverseOffer, error) {
	if len(ids) == 0 {
		return nil, &api.ErrContractViolation{Message: "no offer ids named"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	consumed := make([]api.InverseOffer, 0, len(ids))
	for _, id := range ids {
		offer, ok := t.inverse[id.Value]
		if !ok {
			return nil, &api.ErrOfferUnknown{OfferID: id.Value}
		}
		consumed = append(consumed, offer)
	}
	for _, id := range ids {
		delete(t.inverse, id.Value)
	}
	return consumed, nil
}

// InvalidateAll drops every held offer and inverse offer. Called on
// disconnect: the master cannot be assumed to honor offers across a
// connectivity gap even though no rescind was delivered. Returns how many
// entries were dropped, for logging.
func (t *OfferTracker) InvalidateAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.offers) + len(t.inverse)
	t.offers = map[string]api.Offer{}
	t.inverse = map[string]api.InverseOffer{}
	return n
}

func (t *OfferTracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.offers)
}
