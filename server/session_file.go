package server

import "os"

// handlePWD reports the current directory, rooted at "/<username>"
// rather than the bare jail path.
func (s *session) handlePWD(_ string) {
	_ = reply(s.writer, replyPathCreated, "%q is the current directory.", s.virtualPath())
}

// handleCWD changes the current directory. Unlike the usual RFC 959
// 250, this server replies 200 on success, matching the literal
// behavior this server implements.
func (s *session) handleCWD(arg string) {
	if err := s.fs.ChangeDir(arg); err != nil {
		s.replyError(err)
		return
	}
	_ = reply(s.writer, replyCommandOK, "directory changed to %s", s.virtualPath())
}

func (s *session) handleMKD(arg string) {
	if arg == "" {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}
	if err := s.fs.MakeDir(arg); err != nil {
		s.replyError(err)
		return
	}
	_ = reply(s.writer, replyPathCreated, "%q created.", arg)
}

func (s *session) handleRMD(arg string) {
	if arg == "" {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}
	if err := s.fs.RemoveDir(arg); err != nil {
		s.replyError(err)
		return
	}
	_ = reply(s.writer, replyFileActionOK, "Directory removed.")
}

func (s *session) handleDELE(arg string) {
	if arg == "" {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}
	if err := s.fs.DeleteFile(arg); err != nil {
		s.replyError(err)
		return
	}
	_ = reply(s.writer, replyFileActionOK, "File deleted.")
}

// handleRNFR records the rename source after verifying it exists.
// pendingRenameSrc is always overwritten, even if a previous RNFR was
// never completed with an RNTO.
func (s *session) handleRNFR(arg string) {
	if arg == "" || !s.fs.Exists(arg) {
		s.pendingRenameSrc = ""
		_ = reply(s.writer, replyFileUnavailable, "File not found.")
		return
	}

	s.pendingRenameSrc = arg
	_ = reply(s.writer, replyNeedMoreInfo, "Ready for RNTO.")
}

// handleRNTO completes a rename started by RNFR. pendingRenameSrc is
// cleared unconditionally on return, whether the rename succeeded or
// not, so a failed RNTO can never be retried against a stale source.
func (s *session) handleRNTO(arg string) {
	src := s.pendingRenameSrc
	s.pendingRenameSrc = ""

	if src == "" {
		_ = reply(s.writer, replyBadSequence, "RNFR required first.")
		return
	}
	if arg == "" {
		_ = reply(s.writer, replyBadArguments, "Syntax error in parameters.")
		return
	}

	if err := s.fs.Rename(src, arg); err != nil {
		s.replyError(err)
		return
	}
	_ = reply(s.writer, replyFileActionOK, "Rename successful.")
}

// handleLIST enumerates current_dir and streams one name per line.
// Like RETR/STOR, the pending endpoint and directory readability are
// checked before the 150 reply; only a post-150 broker or data-channel
// failure is reported as 451. The dial and the write of the listing
// itself run in a worker goroutine so the control connection's read
// loop doesn't block on the data connection for the whole listing.
func (s *session) handleLIST(arg string) {
	addr, ok := s.takePendingEndpoint()
	if !ok {
		_ = reply(s.writer, replyCantOpenDataConn, "Can't open data connection.")
		return
	}

	entries, err := s.fs.ListDir(arg)
	if err != nil {
		s.replyError(err)
		return
	}

	_ = reply(s.writer, replyDataConnOpen, "Here comes the directory listing.")

	s.startTransfer(func() {
		conn, err := s.dialData(addr)
		if err != nil {
			_ = reply(s.writer, replyLocalError, "Requested action aborted; local error.")
			return
		}
		defer conn.Close()

		if err := writeListing(conn, entries); err != nil {
			_ = reply(s.writer, replyLocalError, "Requested action aborted; local error.")
			return
		}

		_ = reply(s.writer, replyTransferComplete, "Directory send OK.")
	})
}

// replyError translates a ClientContext error into the matching FTP
// reply code. ErrPathEscape is checked ahead of os.IsPermission since
// it's this package's own sentinel for a jail escape, not a wrapped
// os.ErrPermission.
func (s *session) replyError(err error) {
	switch {
	case os.IsNotExist(err):
		_ = reply(s.writer, replyFileUnavailable, "File or directory not found.")
	case err == ErrPathEscape:
		_ = reply(s.writer, replyFileUnavailable, "Invalid path.")
	case os.IsPermission(err):
		_ = reply(s.writer, replyFileUnavailable, "Permission denied.")
	case os.IsExist(err):
		_ = reply(s.writer, replyFileUnavailable, "File already exists.")
	default:
		_ = reply(s.writer, replyLocalError, "Requested action aborted.")
	}
}
