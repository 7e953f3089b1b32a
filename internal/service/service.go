package service

import (
	"github.com/sawitsmart/backend/internal/domain"
)

// DataRepository is re-exported from domain for convenience
type DataRepository = domain.DataRepository

// Publisher pushes typed messages to live feed subscribers.
type Publisher interface {
	Publish(msgType string, payload any) error
}
