// Package statement tokenizes and rewrites Python import statements.
//
// Only one fixed shape is understood:
//
//	from <module> import <name>[, <name>...]
//
// The keyword "import" is matched as a whole word, so a module such as
// importlib is never split in the middle. Every operation is pure and
// reports bad input through a bool or a sentinel error instead of panicking.
//
// Example Usage:
//
//	name, ok := statement.ExtractName("from frappe.utils import get_url, get_site", true)
//	// → "get_url()", true
//
//	all, ok := statement.ToWildcard("from frappe.utils import get_url")
//	// → "from frappe.utils import *", true
package statement
