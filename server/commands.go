package server

// commandHandlers maps verbs to their handler functions for
// authenticated sessions. USER, PASS, and QUIT are dispatched
// specially in session.dispatch because they alone are legal before
// authentication.
var commandHandlers = map[string]func(*session, string){
	"CWD":  (*session).handleCWD,
	"PWD":  (*session).handlePWD,
	"LIST": (*session).handleLIST,
	"MKD":  (*session).handleMKD,
	"RMD":  (*session).handleRMD,
	"DELE": (*session).handleDELE,
	"RNFR": (*session).handleRNFR,
	"RNTO": (*session).handleRNTO,
	"PORT": (*session).handlePORT,
	"RETR": (*session).handleRETR,
	"STOR": (*session).handleSTOR,
}

// handleUSER names the candidate user. The server distinguishes an
// unknown username (530) from a known one awaiting a password (331)
// so USER alone never confirms or denies a password. Unlike a failed
// PASS, a failed USER leaves the session's state exactly as it was:
// an unknown USER sent mid-login doesn't un-name whichever user was
// already pending, and an unknown USER sent by an already-logged-in
// session doesn't drop that session's authentication.
func (s *session) handleUSER(arg string) {
	if arg == "" {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}

	if !s.server.driver.UserExists(arg) {
		_ = reply(s.writer, replyNotLoggedIn, "Not logged in.")
		return
	}

	s.username = arg
	s.state = stateUserNamed
	_ = reply(s.writer, replyNeedPassword, "Password required for %s.", arg)
}

// handlePASS verifies the password named by the preceding USER. On
// success it authenticates the driver, creating the user's jail on
// first login. On any failure the session falls back to Unauth so a
// fresh USER is required.
func (s *session) handlePASS(arg string) {
	if s.state != stateUserNamed {
		_ = reply(s.writer, replyBadSequence, "Login with USER first.")
		return
	}

	ctx, err := s.server.driver.Authenticate(s.username, arg)
	if err != nil {
		s.server.recordAuthentication(false, s.username)
		s.state = stateUnauth
		s.username = ""
		_ = reply(s.writer, replyNotLoggedIn, "Login incorrect.")
		return
	}

	s.fs = ctx
	s.state = stateAuthenticated
	s.server.recordAuthentication(true, s.username)
	_ = reply(s.writer, replyLoggedIn, "User %s logged in.", s.username)
}

// handleQUIT replies and marks the session for closing. The actual
// connection teardown happens in serve's loop after dispatch returns,
// not here, so every session follows exactly one close path.
func (s *session) handleQUIT() {
	_ = reply(s.writer, replyClosingControl, "Goodbye.")
	s.quit = true
}
