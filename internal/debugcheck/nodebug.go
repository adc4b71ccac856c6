//go:build !goregion.debug

package debugcheck

// Assert is a no-op in release builds.
func Assert(cond bool, msg string, args ...any) {}
