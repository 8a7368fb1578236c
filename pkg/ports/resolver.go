package ports

// FragmentResolver maps a reference name to a raw fragment.
//
// Import references resolve to a list of raw entries ([]any), dialog
// references resolve to a raw node (map[string]any). Implementations return
// domain.ErrFragmentNotFound when the reference does not exist.
type FragmentResolver interface {
	Resolve(ref string) (any, error)
}

// ResolverFunc adapts a function to FragmentResolver.
type ResolverFunc func(ref string) (any, error)

// Resolve calls f(ref).
func (f ResolverFunc) Resolve(ref string) (any, error) {
	return f(ref)
}
