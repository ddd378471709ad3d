package routine

import "context"

type option struct {
	recoverFunc func(ctx context.Context, r interface{})
	limit       int
}

type Option func(*option)

// Recover register to Pool
func Recover(f func(context.Context, interface{})) Option {
	return func(o *option) { o.recoverFunc = f }
}

// Limit bounds the number of goroutines an ErrGroup runs at once.
func Limit(n int) Option {
	return func(o *option) { o.limit = n }
}
