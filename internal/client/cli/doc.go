// Package cli provides the interactive StudyWithMe terminal client.
//
// It wires configuration, the REST API client and the four client
// components (session, lobby, pomodoro timer and ambient player) into a
// REPL that plays the part of the application shell. Typical flow: log in,
// list or create rooms, pick a display name, join a room, then run the
// focus timer with background music.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or standard input is closed. See App and runREPL for details.
package cli
