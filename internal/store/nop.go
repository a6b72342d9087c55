package store

import (
	"context"
	"time"

	"github.com/verte-zerg/nestegg/internal/model"
)

// NopState discards form state. Used when persistence is disabled.
type NopState struct{}

var _ StateStore = NopState{}

// SaveFormState implements StateStore.
func (NopState) SaveFormState(context.Context, model.FormState, time.Duration) error {
	return nil
}

// LoadFormState implements StateStore.
func (NopState) LoadFormState(context.Context) (model.FormState, bool, error) {
	return model.FormState{}, false, nil
}
