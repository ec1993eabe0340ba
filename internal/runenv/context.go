package runenv

import (
	"fmt"
	"os"
	"sort"
)

// Context is the immutable environment for one pipeline run. It is built once
// by Resolve and safely shared across concurrent branches; nothing writes to
// it afterward.
type Context struct {
	values map[string]string
}

// Lookup returns the value bound to name and whether it exists.
func (c *Context) Lookup(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Get returns the value bound to name, or the empty string.
func (c *Context) Get(name string) string {
	return c.values[name]
}

// Environ returns the context as KEY=VALUE pairs in sorted order, suitable
// for appending to a child process environment.
func (c *Context) Environ() []string {
	out := make([]string, 0, len(c.values))
	for k, v := range c.values {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

// Expand replaces ${VAR} and $VAR references in s with values from the
// context. Unknown variables expand to the empty string.
func (c *Context) Expand(s string) string {
	return os.Expand(s, c.Get)
}

// Len returns the number of bound variables.
func (c *Context) Len() int {
	return len(c.values)
}
