// Package options implements the functional option pattern used by the
// compressor, decompressor and codec configurations.
package options

// Option configures a target of type T.
type Option[T any] interface {
	apply(T) error
}

// Func adapts a plain function to Option.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an option that may reject its argument.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an option that always succeeds.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply applies opts in order and stops at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}

// Validator is implemented by configurations that check their own consistency
// once every option has been applied.
type Validator interface {
	Validate() error
}

// ApplyAndValidate applies opts and then validates the combined result.
// Options are checked one at a time, so cross-option rules belong in Validate.
func ApplyAndValidate[T Validator](target T, opts ...Option[T]) error {
	if err := Apply(target, opts...); err != nil {
		return err
	}

	return target.Validate()
}
