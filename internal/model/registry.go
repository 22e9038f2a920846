package model

import "fmt"

// Architecture registry: a stable tag maps to a factory that allocates an
// instance shaped for that tag's snapshots. Instances are never
// reconstructed from arbitrary runtime type names.

var registry = map[string]func() Model{}

// #region register
// Register binds an architecture tag to a factory. Later registrations for
// the same tag replace earlier ones.
func Register(tag string, factory func() Model) {
	registry[tag] = factory
}

// RegisterLinear registers a linear architecture with the given shape and
// returns its tag.
func RegisterLinear(obsDim, actDim int) string {
	tag := fmt.Sprintf("linear-%dx%d", obsDim, actDim)
	Register(tag, func() Model { return NewLinear(obsDim, actDim) })
	return tag
}

// #endregion register

// #region new
// New allocates a fresh instance for the given architecture tag.
func New(tag string) (Model, error) {
	factory, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("unknown architecture %q", tag)
	}
	return factory(), nil
}

// #endregion new
