// SPDX-License-Identifier: MPL-2.0

// Package extstate reads the JSON files the engine treats as read-only
// external state: hosts.json and storages.json, both edited by a
// companion settings subsystem outside this module. A missing file is
// treated as an empty collection rather than an error, matching the
// engine's tolerance for a fresh or partially configured datadir. Writes
// use the corpus's temp-file-plus-rename pattern so a crash mid-write
// never leaves a half-written file for the settings subsystem to read.
package extstate
