package engine

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go.sablewire.io/engine/pkg/brigade"
	"go.sablewire.io/engine/pkg/cert"
	"go.sablewire.io/engine/pkg/models"
	"go.sablewire.io/engine/pkg/record"
)

type sessionState int

const (
	stateConfiguring sessionState = iota
	stateRunning
	stateFailed
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateConfiguring:
		return "configuring"
	case stateRunning:
		return "running"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// Session is per-connection state. A session is single-threaded and
// cooperative: it never blocks and never performs I/O itself. Distinct
// sessions may run on distinct goroutines; one session may not be
// shared.
type Session struct {
	id     string
	conf   *Conf
	logger *zap.Logger
	role   models.Role
	state  sessionState

	inEnc    *brigade.Brigade
	outEnc   *brigade.Brigade
	inClear  *brigade.Brigade
	outClear *brigade.Brigade

	// handshake accumulates inbound handshake payloads across records.
	handshake  *brigade.Brigade
	logPending *brigade.Brigade

	bus    *eventBus
	reader *record.Reader

	serverName       string
	protocols        []string
	selectedProtocol string

	peerVersion     models.Version
	havePeerVersion bool
	peerChain       *cert.Chain
}

// Client creates a client-role session bound to conf.
func Client(conf *Conf) (*Session, error) {
	return newSession(conf, models.RoleClient)
}

// Server creates a server-role session bound to conf.
func Server(conf *Conf) (*Session, error) {
	return newSession(conf, models.RoleServer)
}

func newSession(conf *Conf, role models.Role) (*Session, error) {
	if conf == nil {
		return nil, models.Errorf(models.KindInval, "nil configuration")
	}
	s := &Session{
		id:         uuid.New().String(),
		conf:       conf,
		role:       role,
		state:      stateConfiguring,
		inEnc:      brigade.New(),
		outEnc:     brigade.New(),
		inClear:    brigade.New(),
		outClear:   brigade.New(),
		handshake:  brigade.New(),
		logPending: brigade.New(),
		bus:        newEventBus(),
		peerChain:  cert.NewChain(),
	}
	s.logger = conf.logger.With(
		zap.String("session", s.id),
		zap.String("role", role.String()),
	)
	s.reader = record.NewReader(s.logger, s)
	return s, nil
}

// ID returns the session's identifier, used for log correlation.
func (s *Session) ID() string {
	return s.id
}

// Role returns the session's endpoint role.
func (s *Session) Role() models.Role {
	return s.role
}

// Subscribe attaches fn to ev. Subscriptions made while a publication
// of ev is in flight first fire on the next publication.
func (s *Session) Subscribe(ev models.Event, fn Callback) error {
	if fn == nil {
		return models.Errorf(models.KindInval, "nil callback for event %s", ev)
	}
	s.bus.subscribe(ev, fn)
	return nil
}

func (s *Session) publish(ev models.Event) error {
	return s.bus.publish(s, ev)
}

// NameIndication sets the hostname sent in the SNI extension. Client
// sessions only; not allowed once the session started.
func (s *Session) NameIndication(hostname string) error {
	if s.role != models.RoleClient {
		return models.Errorf(models.KindUnsupported, "name indication requires a client session")
	}
	if s.state != stateConfiguring {
		return models.Errorf(models.KindBadState, "cannot change name indication on a %s session", s.state)
	}
	s.serverName = hostname
	return nil
}

// NextProtocolAdd appends name to the ALPN list offered in the client
// hello. Client sessions only; not allowed once the session started.
func (s *Session) NextProtocolAdd(name string) error {
	if s.role != models.RoleClient {
		return models.Errorf(models.KindUnsupported, "next protocol requires a client session")
	}
	if s.state != stateConfiguring {
		return models.Errorf(models.KindBadState, "cannot add next protocol on a %s session", s.state)
	}
	if name == "" {
		return models.Errorf(models.KindInval, "empty next protocol name")
	}
	s.protocols = append(s.protocols, name)
	return nil
}

// Start transitions the session from configuring to running. A client
// session emits its ClientHello into out_enc and publishes IO_OUT_ENC.
// Starting twice is an error.
func (s *Session) Start() error {
	if s.state != stateConfiguring {
		return models.Errorf(models.KindBadState, "cannot start a %s session", s.state)
	}
	s.state = stateRunning

	if s.role == models.RoleClient {
		hello, err := record.NewClientHello(s.conf.CipherSuites())
		if err != nil {
			s.state = stateFailed
			return err
		}
		hello.ServerName = s.serverName
		hello.Protocols = s.protocols
		record.WriteClientHello(s.outEnc, hello)
		if err := s.logf("client hello emitted (sni=%q, protocols=%d)", s.serverName, len(s.protocols)); err != nil {
			return err
		}
		return s.publish(models.EventIOOutEnc)
	}

	return s.logf("server session running")
}

// Close destroys the session. Pending buffers and the peer chain are
// released; the configuration is untouched. Close is idempotent.
func (s *Session) Close() error {
	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed
	s.inEnc = brigade.New()
	s.outEnc = brigade.New()
	s.inClear = brigade.New()
	s.outClear = brigade.New()
	s.handshake = brigade.New()
	s.logPending = brigade.New()
	if s.peerChain != nil {
		s.peerChain.Close()
	}
	s.logger.Debug("session closed")
	return nil
}

// PeerVersion returns the record-layer version observed on the first
// inbound record, and whether one was observed yet.
func (s *Session) PeerVersion() (models.Version, bool) {
	return s.peerVersion, s.havePeerVersion
}

// SelectedProtocol returns the negotiated ALPN name, empty while
// negotiation has not completed.
func (s *Session) SelectedProtocol() string {
	return s.selectedProtocol
}

// PeerChain returns the certificate chain surfaced by the trust
// evaluator, leaf first. Empty until the handshake delivers one.
func (s *Session) PeerChain() *cert.Chain {
	return s.peerChain
}

// LogMsgGet drains and returns the pending engine log text. Subscribers
// to LOG_MSG call this to retrieve the line that triggered the event.
func (s *Session) LogMsgGet() string {
	text := s.logPending.Bytes()
	s.logPending = brigade.New()
	return string(text)
}

// logf emits an engine log line: it reaches the zap logger, the pending
// log buffer, and every LOG_MSG subscriber.
func (s *Session) logf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	s.logger.Info(msg)
	s.logPending.Append([]byte(msg + "\n"))
	return s.publish(models.EventLogMsg)
}

// wireVersion is the record-layer version for outbound records: the
// peer's observed version once known, the engine's floor before that.
func (s *Session) wireVersion() models.Version {
	if s.havePeerVersion {
		return s.peerVersion
	}
	return models.VersionTLS10
}

// fail marks the session failed and queues a fatal alert for the peer.
func (s *Session) fail(desc byte, reason string) {
	record.WriteAlert(s.outEnc, s.wireVersion(), models.AlertLevelFatal, desc)
	s.state = stateFailed
	s.logger.Warn("session failed", zap.String("reason", reason))
	if err := s.publish(models.EventIOOutEnc); err != nil {
		s.logger.Warn("IO_OUT_ENC subscriber failed during session failure", zap.Error(err))
	}
}

// record.Sink implementation: payloads routed by the record reader.

// OnHandshake accumulates handshake payload bytes across records.
func (s *Session) OnHandshake(payload *brigade.Brigade) error {
	s.handshake.Concat(payload)
	return nil
}

// OnChangeCipherSpec validates the single-byte CCS payload.
func (s *Session) OnChangeCipherSpec(payload *brigade.Brigade) error {
	p := payload.Bytes()
	if len(p) != 1 || p[0] != 1 {
		return models.Errorf(models.KindInval, "invalid ChangeCipherSpec payload")
	}
	return s.logf("peer change cipher spec")
}

// OnAlert reacts to a peer alert: close_notify closes the session, any
// other fatal alert fails it, warnings are logged.
func (s *Session) OnAlert(level, desc byte) error {
	if err := s.logf("peer alert: level=%d desc=%d", level, desc); err != nil {
		return err
	}
	switch {
	case desc == models.AlertCloseNotify:
		s.state = stateClosed
	case level == models.AlertLevelFatal:
		s.state = stateFailed
	}
	return nil
}

// OnApplicationData hands decrypted plaintext to the application side.
func (s *Session) OnApplicationData(payload *brigade.Brigade) error {
	s.outClear.Concat(payload)
	return s.publish(models.EventIOOutClear)
}
