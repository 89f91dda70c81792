// Package server implements an RFC 959 FTP server restricted to
// active-mode data connections and a small command set: USER, PASS,
// QUIT, PORT, LIST, CWD, PWD, RETR, STOR, MKD, RMD, DELE, RNFR, and
// RNTO.
//
// # Overview
//
// Each client gets its own goroutine (session) and, once
// authenticated, its own jailed subtree of the server's root
// directory. A session is a small state machine — Unauth, UserNamed,
// Authenticated — gated by USER/PASS; every other command requires
// the Authenticated state.
//
// # Getting Started
//
//	store, err := credentials.Load("users.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	driver, err := server.NewFSDriver("/srv/ftp", store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s, err := server.NewServer(":21", server.WithDriver(driver))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(s.ListenAndServe())
//
// # Active Mode Only
//
// This server never listens for data connections. On PORT, it dials
// the client's advertised address, originating from the source port
// configured by WithDataAddr (":20" by default, per RFC 959). Only
// one such dial can be in flight at a time across all sessions, since
// only one local socket can hold that port; the Data-Connection
// Broker serializes them.
//
// # Jailing
//
// A ClientContext confines every path to <root>/<username>. Paths are
// canonicalized against the real filesystem before being checked
// against the jail boundary, so a symlink that resolves outside the
// jail is rejected the same way a literal ".." is.
//
// # Custom Drivers
//
// Implement Driver and ClientContext to back the server with
// something other than the local filesystem:
//
//	type Driver interface {
//	    UserExists(username string) bool
//	    Authenticate(username, password string) (ClientContext, error)
//	}
package server
