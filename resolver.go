package slimrouter

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// ResolverKind identifies how a route produces its content.
type ResolverKind int

const (
	// ResolverNone is the kind of the zero Resolver.
	ResolverNone ResolverKind = iota
	// ResolverStaticMount marks a prefix under which file routes are
	// discovered on first request.
	ResolverStaticMount
	// ResolverFilePath resolves content from a file relative to the route's
	// root directory.
	ResolverFilePath
	// ResolverCallable resolves content by calling a function at request time.
	ResolverCallable
)

func (k ResolverKind) String() string {
	switch k {
	case ResolverStaticMount:
		return "static"
	case ResolverFilePath:
		return "file"
	case ResolverCallable:
		return "callable"
	default:
		return "none"
	}
}

// ResolverFunc produces the content of a callable route. It is invoked on
// every request, so the content reflects the state at request time. Returning
// nil content, or a nil pointer, slice or map, results in a 404 response. An
// empty non-nil value such as []byte{} is served with a 200.
type ResolverFunc func(ctx context.Context) (any, error)

// Resolver describes where a route's content comes from. Build one with
// StaticMount, FilePath or Callable.
type Resolver struct {
	kind ResolverKind
	path string
	fn   ResolverFunc
}

// StaticMount returns a resolver that turns a route into a static mount.
func StaticMount() Resolver {
	return Resolver{kind: ResolverStaticMount}
}

// FilePath returns a resolver that reads the given file, relative to the
// route's root directory.
func FilePath(filePath string) Resolver {
	return Resolver{kind: ResolverFilePath, path: filePath}
}

// Callable returns a resolver that calls fn for every request. A nil fn
// yields the zero Resolver.
func Callable(fn ResolverFunc) Resolver {
	if fn == nil {
		return Resolver{}
	}
	return Resolver{kind: ResolverCallable, fn: fn}
}

// Kind returns the resolver kind.
func (r Resolver) Kind() ResolverKind {
	return r.kind
}

// Path returns the file path of a FilePath resolver.
func (r Resolver) Path() string {
	return r.path
}

// Func returns the function of a Callable resolver.
func (r Resolver) Func() ResolverFunc {
	return r.fn
}

// String returns a serializable form of the resolver. Static mounts render as
// "static", file resolvers as their path and callables as "func:" followed by
// the function's symbol name.
func (r Resolver) String() string {
	switch r.kind {
	case ResolverStaticMount:
		return "static"
	case ResolverFilePath:
		return r.path
	case ResolverCallable:
		name := "anonymous"
		if fn := runtime.FuncForPC(reflect.ValueOf(r.fn).Pointer()); fn != nil {
			name = fn.Name()
		}
		return "func:" + name
	default:
		return ""
	}
}

func (r Resolver) trimLeadingSeparator() Resolver {
	if r.kind == ResolverFilePath {
		r.path = strings.TrimPrefix(r.path, "/")
	}
	return r
}
