// Package git provides a client for the Git operations in the docpress
// pipeline: cloning the documented source repository and committing and
// pushing the rendered site to a pages branch.
//
// This package handles:
//   - Source checkout with authentication (SSH, token, basic)
//   - Incremental source updates for daemon mode
//   - Pages branch clone, overlay commit with a fixed author identity,
//     and push with retry on transient failures
//   - No-op detection: a clean pages worktree commits nothing and succeeds
package git
