package catalog

import (
	"context"
	"fmt"
)

// UnavailableStore stands in for a backend that could not be set up. Every
// call fails with ErrUnavailable so the service can still start and report it.
type UnavailableStore struct {
	Reason error
}

func (u *UnavailableStore) err() error {
	if u.Reason == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, u.Reason)
}

func (u *UnavailableStore) Record(context.Context, string, string) (*CourseRecord, error) {
	return nil, u.err()
}

func (u *UnavailableStore) Terms(context.Context) ([]string, error) {
	return nil, u.err()
}

func (u *UnavailableStore) CourseCodes(context.Context, string) ([]string, error) {
	return nil, u.err()
}
