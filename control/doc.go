// Package control provides the ambient operational surface shared by this
// module's engines: a dynamic configuration store, a metrics registry,
// debug introspection probes, and an instance-scoped reload-hook registry.
//
// None of these are CDP-specific; a session, a browser supervisor, or a
// command-line driver each hold their own instance and wire it into
// whichever lifecycle events they want observable from outside.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package control
