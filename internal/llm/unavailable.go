package llm

import "context"

// unavailable is a Provider that fails every call with the error that
// prevented the real provider from being built.
type unavailable struct {
	err   error
	model string
}

// Unavailable returns a Provider whose Generate always fails with err
// wrapped as *ErrProviderUnavailable. It lets a server start without a
// credential so requests can report the problem or fall back.
func Unavailable(err error, model string) Provider {
	if !IsUnavailable(err) {
		err = &ErrProviderUnavailable{Err: err}
	}
	return &unavailable{err: err, model: model}
}

func (u *unavailable) Generate(ctx context.Context, req Request) (*Response, error) {
	return nil, u.err
}

func (u *unavailable) ModelID() string { return u.model }
