// Package compose compiles a hook/demo edit configuration into an FFmpeg
// filter-graph program.
//
// Compilation runs leaf-first: ResolveTiming fixes the effective windows of
// both clips, the effect, transition, text and audio generators render their
// fragments from those windows, and a Graph assembles the fragments while
// checking that every pad is produced and consumed exactly once. The result
// is a Program whose Args can be handed to the engine unchanged.
//
// Everything in this package is pure. A Compiler may be shared between
// goroutines.
package compose
