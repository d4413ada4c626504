package fault

import "errors"

// Schema describes the typed failures a middleware may produce, catch, or
// substitute. The engine does not enforce schemas; they document the
// contract and let wrapping implementations test an error with Match.
type Schema struct {
	name  string
	match func(error) bool
}

// Never is the schema of a middleware that cannot fail with a typed error.
var Never = Schema{}

// Any matches every typed failure. Defects never match.
func Any() Schema {
	return Schema{name: "any", match: func(error) bool { return true }}
}

// Of matches failures whose chain contains an error of type E.
func Of[E error](name string) Schema {
	return Schema{name: name, match: func(err error) bool {
		var target E
		return errors.As(err, &target)
	}}
}

// Is matches failures whose chain contains target.
func Is(target error) Schema {
	return Schema{name: target.Error(), match: func(err error) bool {
		return errors.Is(err, target)
	}}
}

// OneOf matches failures matched by any of schemas.
func OneOf(schemas ...Schema) Schema {
	name := ""
	for i, s := range schemas {
		if i > 0 {
			name += " | "
		}
		name += s.Name()
	}
	return Schema{name: name, match: func(err error) bool {
		for _, s := range schemas {
			if s.Match(err) {
				return true
			}
		}
		return false
	}}
}

// Name returns a human-readable description of the schema.
func (s Schema) Name() string {
	if s.match == nil {
		return "never"
	}
	return s.name
}

// IsNever reports whether the schema matches nothing.
func (s Schema) IsNever() bool { return s.match == nil }

// Match reports whether err is a typed failure described by the schema.
// Nil errors and defects never match.
func (s Schema) Match(err error) bool {
	if s.match == nil || err == nil || IsDefect(err) {
		return false
	}
	return s.match(err)
}
