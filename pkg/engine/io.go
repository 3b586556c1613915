package engine

import (
	"github.com/pkg/errors"

	"go.sablewire.io/engine/pkg/models"
	"go.sablewire.io/engine/pkg/record"
)

// The four I/O surfaces. Pushes enqueue into the matching brigade and
// run the engine; drains copy buffered bytes out and are restartable in
// a tight loop. None of them ever block.

func (s *Session) checkPush() error {
	switch s.state {
	case stateRunning:
		return nil
	case stateConfiguring:
		return models.Errorf(models.KindBadState, "session not started")
	case stateClosed:
		return models.Errorf(models.KindCancelled, "session closed")
	}
	return models.Errorf(models.KindBadState, "session failed")
}

// InEncBytes delivers ciphertext received from the peer. Complete
// records are parsed immediately; a trailing partial record is buffered
// until more bytes arrive. A record-layer parse failure queues a fatal
// decode_error alert on out_enc, fails the session, and surfaces the
// parse error to the caller.
func (s *Session) InEncBytes(p []byte) error {
	if err := s.checkPush(); err != nil {
		return err
	}
	s.inEnc.Append(p)
	if err := s.publish(models.EventIOInEnc); err != nil {
		return errors.Wrap(err, "IO_IN_ENC subscriber failed")
	}

	if err := s.reader.Read(s.inEnc); err != nil {
		if models.IsKind(err, models.KindInval) {
			s.fail(models.AlertDecodeError, err.Error())
		}
		return err
	}

	if v, ok := s.reader.PeerVersion(); ok && !s.havePeerVersion {
		s.peerVersion = v
		s.havePeerVersion = true
	}
	return nil
}

// OutEncBytes drains ciphertext to be written to the peer. It returns
// the number of bytes copied into buf and the number still buffered.
// Draining remains possible on a failed session so the host can flush
// the final alert.
func (s *Session) OutEncBytes(buf []byte) (int, int, error) {
	if s.state == stateClosed {
		return 0, 0, models.Errorf(models.KindCancelled, "session closed")
	}
	n, remaining := s.outEnc.Drain(buf)
	return n, remaining, nil
}

// InClearBytes delivers application plaintext to be sent to the peer.
// On the null-cipher path the plaintext is framed into application-data
// records on out_enc as-is.
func (s *Session) InClearBytes(p []byte) error {
	if err := s.checkPush(); err != nil {
		return err
	}
	s.inClear.Append(p)
	if err := s.publish(models.EventIOInClear); err != nil {
		return errors.Wrap(err, "IO_IN_CLEAR subscriber failed")
	}

	pending, err := s.inClear.Consume(s.inClear.Size())
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	record.Write(s.outEnc, models.ContentApplicationData, s.wireVersion(), pending)
	if err := s.publish(models.EventIOOutEnc); err != nil {
		return errors.Wrap(err, "IO_OUT_ENC subscriber failed")
	}
	return nil
}

// OutClearBytes drains plaintext received from the peer. It returns the
// number of bytes copied into buf and the number still buffered.
func (s *Session) OutClearBytes(buf []byte) (int, int, error) {
	if s.state == stateClosed {
		return 0, 0, models.Errorf(models.KindCancelled, "session closed")
	}
	n, remaining := s.outClear.Drain(buf)
	return n, remaining, nil
}
