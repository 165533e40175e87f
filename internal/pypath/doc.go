// Package pypath derives Python dotted paths and import statements from
// source files in a bench checkout.
//
// A module path is built by climbing from the file's directory while each
// directory is a package (contains __init__.py), so
// apps/frappe/frappe/utils/data.py resolves to frappe.utils.data.
//
// Locate walks a tree for top-level def/class definitions of a symbol,
// which is how the "run" and "execute" commands find a target when the
// user only knows its name.
package pypath
