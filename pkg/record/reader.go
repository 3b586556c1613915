// Package record implements TLS record-layer framing: a restartable
// reader that parses inbound records one at a time and routes their
// payloads by content type, and a writer that frames outbound records.
package record

import (
	"go.uber.org/zap"

	"go.sablewire.io/engine/pkg/brigade"
	"go.sablewire.io/engine/pkg/models"
	"go.sablewire.io/engine/pkg/token"
)

// State is the reader's position inside the current record.
type State int

const (
	StateInit State = iota
	StateContentType
	StateVersion
	StateLength
	StateMessage
	// StateMAC and StatePadding are reserved for encrypted records and
	// are pass-through on the null-cipher path.
	StateMAC
	StatePadding
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateContentType:
		return "CONTENT_TYPE"
	case StateVersion:
		return "VERSION"
	case StateLength:
		return "LENGTH"
	case StateMessage:
		return "MESSAGE"
	case StateMAC:
		return "MAC"
	case StatePadding:
		return "PADDING"
	case StateDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// Header is the parsed 5-byte record framing header.
type Header struct {
	ContentType models.ContentType
	Version     models.Version
	Length      int
}

// Sink receives each completed record's payload, routed by content
// type. Payload brigades are owned by the sink once delivered.
type Sink interface {
	OnHandshake(payload *brigade.Brigade) error
	OnChangeCipherSpec(payload *brigade.Brigade) error
	OnAlert(level, desc byte) error
	OnApplicationData(payload *brigade.Brigade) error
}

// Reader parses TLS records from an input brigade. It is restartable:
// Read suspends without error when a record is incomplete and resumes
// from the same position on the next call.
type Reader struct {
	logger *zap.Logger
	sink   Sink

	tok   *token.Tokenizer
	state State
	hdr   Header

	peerVersion     models.Version
	havePeerVersion bool
}

// NewReader returns a reader delivering payloads to sink.
func NewReader(logger *zap.Logger, sink Sink) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reader{logger: logger, sink: sink}
	r.reset()
	return r
}

func (r *Reader) reset() {
	r.state = StateInit
	r.hdr = Header{}
	r.tok = token.New(r.step)
}

// State returns the reader's position inside the current record.
func (r *Reader) State() State {
	return r.state
}

// PeerVersion returns the version observed on the first completed
// record, and whether one was observed yet.
func (r *Reader) PeerVersion() (models.Version, bool) {
	return r.peerVersion, r.havePeerVersion
}

// Read parses as many complete records as in holds, delivering each
// payload to the sink. It returns nil when the input runs dry
// mid-record; the partial state is kept for the next call.
func (r *Reader) Read(in *brigade.Brigade) error {
	for {
		done, err := r.tok.Run(in)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}

		// Only the first record's version is recorded; TLS peers pin
		// the record-layer version after the initial exchange.
		if !r.havePeerVersion {
			r.peerVersion = r.hdr.Version
			r.havePeerVersion = true
		}
		r.logger.Debug("record complete",
			zap.String("contentType", r.hdr.ContentType.String()),
			zap.String("version", r.hdr.Version.String()),
			zap.Int("length", r.hdr.Length),
		)
		r.reset()
	}
}

func (r *Reader) step(v token.Value) (token.Next, error) {
	switch r.state {
	case StateInit:
		r.state = StateContentType
		return token.Next{Op: token.OpCopyBytes, Len: 1}, nil

	case StateContentType:
		r.hdr.ContentType = models.ContentType(v.Bytes[0])
		if !r.hdr.ContentType.Valid() {
			return token.Next{}, models.Errorf(models.KindInval, "Invalid content type: %d", v.Bytes[0])
		}
		r.state = StateVersion
		return token.Next{Op: token.OpCopyBytes, Len: 2}, nil

	case StateVersion:
		r.hdr.Version = models.Version{Major: v.Bytes[0], Minor: v.Bytes[1]}
		r.state = StateLength
		return token.Next{Op: token.OpCopyBytes, Len: 2}, nil

	case StateLength:
		r.hdr.Length = int(v.Bytes[0])<<8 | int(v.Bytes[1])
		r.state = StateMessage
		return token.Next{Op: token.OpCopyBrigade, Len: r.hdr.Length}, nil

	case StateMessage:
		if err := r.route(v.Brigade); err != nil {
			return token.Next{}, err
		}
		r.state = StateDone
		return token.Next{Op: token.OpDone}, nil

	case StateMAC, StatePadding:
		// Pass-through until encrypted records carry a MAC.
		r.state = StateDone
		return token.Next{Op: token.OpDone}, nil
	}

	return token.Next{}, models.Errorf(models.KindBadState, "record reader in unexpected state %s", r.state)
}

func (r *Reader) route(payload *brigade.Brigade) error {
	switch r.hdr.ContentType {
	case models.ContentHandshake:
		return r.sink.OnHandshake(payload)

	case models.ContentChangeCipherSpec:
		return r.sink.OnChangeCipherSpec(payload)

	case models.ContentAlert:
		// An alert record carries one or more (level, description) pairs.
		for payload.Size() >= 2 {
			p, err := payload.Consume(2)
			if err != nil {
				return err
			}
			if err := r.sink.OnAlert(p[0], p[1]); err != nil {
				return err
			}
		}
		if payload.Size() != 0 {
			return models.Errorf(models.KindInval, "alert record with trailing byte")
		}
		return nil

	case models.ContentApplicationData:
		return r.sink.OnApplicationData(payload)
	}

	return models.Errorf(models.KindInval, "Invalid content type: %d", byte(r.hdr.ContentType))
}
