// Package compiler is the function-compilation core: it registers function
// declarations, resolves overloads at call sites, specializes generic
// functions, compiles each function exactly once into mir, infers and
// reconciles return types, and applies compile-time directives.
//
// A Compiler is single-threaded and reentrant. Compiling one function may
// compile others (callees, specializations, hooks, @run passes); every such
// nested compilation snapshots the shared Context on entry and restores it on
// every exit path.
package compiler
