// Package session provides authenticated channels to single machines.
//
// A Session pushes and pulls files and runs commands. SSHDialer opens
// sessions over SSH with SFTP for file transfer; LocalDialer maps every
// machine to a directory on the local filesystem. Every error is an
// *errors.AppError classified as CONNECTION_FAILED, AUTHENTICATION_FAILED,
// TRANSFER_FAILED, REMOTE_COMMAND_FAILED, FETCH_FAILED or CANCELED.
//
// Sessions must be closed on every exit path:
//
//	s, err := dialer.Dial(ctx, target)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
package session
