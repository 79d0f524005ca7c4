/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package clonemanager provides isolated git clones of pull request head
// branches. A Manager is configured with the GitHub token source and commit
// identity for the bot, and exposes Lease handles that:
//   - Clone a repository into a fresh temporary directory, configure the
//     local committer identity, pull, and check out the head branch.
//   - Report whether tracked files were modified in the working tree.
//   - Commit every tracked modification and push it back to the head branch.
//
// Every operation is addressed by the lease's own directory; nothing changes
// the process working directory, so leases can be used concurrently. Callers
// must Return each lease, which removes its directory.
package clonemanager
