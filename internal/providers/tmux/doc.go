// Package tmux hosts named sessions in a tmux server.
//
// tmux sessions outlive the benchplay process, which is what lets one
// invocation start "bench console" and a later invocation reuse it: the
// session registry finds it again by listing the server's sessions.
//
// Text is submitted through a named paste buffer followed by an Enter key,
// so multi-line text and shell metacharacters arrive verbatim.
package tmux
