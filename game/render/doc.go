// Package render turns engine boards into console text.
//
// A BoardView is built fresh for every render pass and filled in through the
// engine.RenderContext callbacks. The Ego view shows the owner's ships with
// busted segments in lower case; the Enemy view hides healthy segments and
// untouched water behind a backtick. SideBySide places the two views next to
// each other with digit rulers, the way the console game prints them.
package render
