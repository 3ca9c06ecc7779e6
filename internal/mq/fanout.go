package mq

import (
	"context"
	"errors"
)

// FanoutPublisher publishes every message to all of its publishers
type FanoutPublisher []Publisher

// Publish sends to every publisher and joins their errors
func (f FanoutPublisher) Publish(ctx context.Context, msg *Message) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher
func (f FanoutPublisher) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
